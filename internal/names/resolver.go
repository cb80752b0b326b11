// Package names resolves a Slack user id to the short name the assistant
// greets people with. The team roster wins over the user's own Slack profile;
// resolved names are cached for the process lifetime and written out as
// contact cards.
package names

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/quailyquaily/slackmate/internal/directory"
	"github.com/quailyquaily/slackmate/internal/slackclient"
	"github.com/quailyquaily/slackmate/internal/slackid"
)

const DefaultCacheCapacity = 4096

// ProfileFetcher is the slice of the Slack client the resolver needs.
type ProfileFetcher interface {
	UsersInfo(ctx context.Context, userID string) (slackclient.UserProfile, error)
}

type Options struct {
	Profiles  ProfileFetcher
	Directory directory.Directory
	Cards     *CardStore
	Capacity  int
	Logger    *slog.Logger
}

type Resolver struct {
	profiles  ProfileFetcher
	directory directory.Directory
	cards     *CardStore
	logger    *slog.Logger

	mu       sync.Mutex
	capacity int
	cache    map[string]string
	order    []string
}

func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Resolver{
		profiles:  opts.Profiles,
		directory: opts.Directory,
		cards:     opts.Cards,
		logger:    logger,
		capacity:  capacity,
		cache:     make(map[string]string, capacity),
	}
}

// Resolve returns the greeting name for a user, or "" when no source knows
// them. Lookup failures are logged and degrade to the next source; they never
// fail the caller.
func (r *Resolver) Resolve(ctx context.Context, rawUserID string) string {
	userID := slackid.Normalize(rawUserID)
	if userID == "" {
		return ""
	}

	r.mu.Lock()
	if name, ok := r.cache[userID]; ok {
		r.mu.Unlock()
		return name
	}
	r.mu.Unlock()

	name := r.fromDirectory(ctx, userID)
	if name == "" {
		name = r.fromProfile(ctx, userID)
	}
	if name == "" {
		// Both live sources failed; fall back to a card from an earlier run.
		if cached, ok, err := r.cards.Get(userID); err == nil && ok {
			r.remember(userID, cached)
			return cached
		}
		return ""
	}

	r.remember(userID, name)
	if r.cards != nil {
		if err := r.cards.Put(userID, name); err != nil {
			r.logger.Warn("contact_card_write_failed", "user_id", userID, "error", err)
		}
	}
	return name
}

func (r *Resolver) fromDirectory(ctx context.Context, userID string) string {
	if r.directory == nil {
		return ""
	}
	rec, ok, err := r.directory.Lookup(ctx, userID)
	if err != nil {
		r.logger.Warn("directory_lookup_failed", "user_id", userID, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return directory.PreferredName(rec)
}

func (r *Resolver) fromProfile(ctx context.Context, userID string) string {
	if r.profiles == nil {
		return ""
	}
	profile, err := r.profiles.UsersInfo(ctx, userID)
	if err != nil {
		r.logger.Warn("profile_lookup_failed", "user_id", userID, "error", err)
		return ""
	}
	for _, candidate := range []string{profile.DisplayName, profile.RealName} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

func (r *Resolver) remember(userID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache[userID]; ok {
		r.cache[userID] = name
		return
	}
	r.cache[userID] = name
	r.order = append(r.order, userID)
	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
}
