// Package threadgate tracks which (channel, thread) pairs have been activated
// by a greeting. Ordinary messages are only answered inside an activated
// thread.
package threadgate

import "sync"

const DefaultCapacity = 4096

type Key struct {
	ChannelID string
	ThreadTS  string
}

// Gate holds the Ungreeted/Greeted state per thread. Greeted is terminal:
// once a key is marked it stays marked for the process lifetime (subject only
// to capacity eviction of the oldest entries).
type Gate struct {
	mu       sync.Mutex
	capacity int
	greeted  map[Key]struct{}
	order    []Key
}

func New(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Gate{
		capacity: capacity,
		greeted:  make(map[Key]struct{}, capacity),
	}
}

func (g *Gate) Greeted(k Key) bool {
	if g == nil || k.ChannelID == "" || k.ThreadTS == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.greeted[k]
	return ok
}

// MarkGreeted transitions the key to Greeted and reports whether this call
// performed the transition. A second call for the same key returns false.
func (g *Gate) MarkGreeted(k Key) bool {
	if g == nil || k.ChannelID == "" || k.ThreadTS == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.greeted[k]; ok {
		return false
	}
	g.greeted[k] = struct{}{}
	g.order = append(g.order, k)
	for len(g.order) > g.capacity {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.greeted, oldest)
	}
	return true
}

func (g *Gate) Len() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.greeted)
}
