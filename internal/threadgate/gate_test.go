package threadgate

import (
	"fmt"
	"testing"
)

func TestGateMarkGreetedOnce(t *testing.T) {
	t.Parallel()

	g := New(16)
	k := Key{ChannelID: "D1", ThreadTS: "T1"}

	if g.Greeted(k) {
		t.Fatalf("Greeted() = true before MarkGreeted")
	}
	if !g.MarkGreeted(k) {
		t.Fatalf("MarkGreeted(first) = false, want true")
	}
	if !g.Greeted(k) {
		t.Fatalf("Greeted() = false after MarkGreeted")
	}
	if g.MarkGreeted(k) {
		t.Fatalf("MarkGreeted(second) = true, want false")
	}
}

func TestGateKeysAreIndependent(t *testing.T) {
	t.Parallel()

	g := New(16)
	if !g.MarkGreeted(Key{ChannelID: "D1", ThreadTS: "T1"}) {
		t.Fatalf("MarkGreeted(D1,T1) = false, want true")
	}
	if g.Greeted(Key{ChannelID: "D1", ThreadTS: "T2"}) {
		t.Fatalf("Greeted(D1,T2) = true, want false")
	}
	if g.Greeted(Key{ChannelID: "D2", ThreadTS: "T1"}) {
		t.Fatalf("Greeted(D2,T1) = true, want false")
	}
}

func TestGateRejectsIncompleteKeys(t *testing.T) {
	t.Parallel()

	g := New(16)
	if g.MarkGreeted(Key{ChannelID: "D1"}) {
		t.Fatalf("MarkGreeted without thread ts succeeded")
	}
	if g.MarkGreeted(Key{ThreadTS: "T1"}) {
		t.Fatalf("MarkGreeted without channel succeeded")
	}
	if g.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", g.Len())
	}
}

func TestGateEvictsOldest(t *testing.T) {
	t.Parallel()

	g := New(2)
	for i := 0; i < 3; i++ {
		k := Key{ChannelID: "D1", ThreadTS: fmt.Sprintf("T%d", i)}
		if !g.MarkGreeted(k) {
			t.Fatalf("MarkGreeted(T%d) = false, want true", i)
		}
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	if g.Greeted(Key{ChannelID: "D1", ThreadTS: "T0"}) {
		t.Fatalf("oldest key not evicted")
	}
}
