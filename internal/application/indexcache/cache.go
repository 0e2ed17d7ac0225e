package indexcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultKey is the fixed name the identifier list is persisted under.
const DefaultKey = "propertyAppIds"

// Cache is the local index of known property application ids.
// It is a candidate list only: state read from the chain is authoritative.
type Cache struct {
	Store Store
	Key   string

	mu sync.Mutex
}

// New returns a cache persisting under DefaultKey.
func New(store Store) *Cache {
	return &Cache{Store: store, Key: DefaultKey}
}

func (c *Cache) key() string {
	if c.Key == "" {
		return DefaultKey
	}
	return c.Key
}

// Init persists an empty list when nothing is stored yet. Call once at startup.
func (c *Cache) Init(ctx context.Context) error {
	wrote, err := c.Store.SetIfAbsent(ctx, c.key(), []byte("[]"))
	if err != nil {
		return fmt.Errorf("init index cache: %w", err)
	}
	if wrote {
		log.Info().Str("key", c.key()).Msg("Initialized property app ids")
	}
	return nil
}

// Load returns the persisted ids in stored order. Absent, corrupt or unreadable
// values yield an empty list.
func (c *Cache) Load(ctx context.Context) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Cache) load(ctx context.Context) []uint64 {
	raw, ok, err := c.Store.Get(ctx, c.key())
	if err != nil {
		log.Error().Err(err).Str("key", c.key()).Msg("Error loading property app ids")
		return []uint64{}
	}
	if !ok {
		return []uint64{}
	}
	var ids []uint64
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Warn().Err(err).Str("key", c.key()).Msg("Corrupt property app ids, treating as empty")
		return []uint64{}
	}
	return ids
}

// Merge unions ids into the persisted list. Existing order is kept and new ids are appended.
func (c *Cache) Merge(ctx context.Context, ids ...uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.load(ctx)
	merged := Union(current, ids)
	if len(merged) == len(current) {
		return nil
	}
	return c.save(ctx, merged)
}

// Append is Merge for a single id.
func (c *Cache) Append(ctx context.Context, id uint64) error {
	return c.Merge(ctx, id)
}

// Remove drops ids from the persisted list.
func (c *Cache) Remove(ctx context.Context, ids ...uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	current := c.load(ctx)
	kept := make([]uint64, 0, len(current))
	for _, id := range current {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(current) {
		return nil
	}
	return c.save(ctx, kept)
}

func (c *Cache) save(ctx context.Context, ids []uint64) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := c.Store.Set(ctx, c.key(), b); err != nil {
		return fmt.Errorf("save property app ids: %w", err)
	}
	log.Debug().Int("count", len(ids)).Msg("Saved property app ids")
	return nil
}

// Union returns a followed by the ids of b not already seen, without duplicates.
func Union(a, b []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(a)+len(b))
	out := make([]uint64, 0, len(a)+len(b))
	for _, list := range [][]uint64{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
