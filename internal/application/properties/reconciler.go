package properties

import (
	"context"
	"fmt"

	"property-dapp-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("property-dapp-backend/properties")

// Policy decides when DiscoverAll falls back to the indexer search.
type Policy string

const (
	// PolicyWhenEmpty searches only when no cached id yields a listing. Listings created from
	// other clients are picked up only once the local cache comes up empty.
	PolicyWhenEmpty Policy = "when-empty"
	// PolicyAlways searches on every DiscoverAll.
	PolicyAlways Policy = "always"
)

// ParsePolicy maps a config value onto a Policy, defaulting to PolicyWhenEmpty.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyWhenEmpty:
		return PolicyWhenEmpty, nil
	case PolicyAlways:
		return PolicyAlways, nil
	}
	return "", fmt.Errorf("unknown discovery policy %q", s)
}

// IndexCache is the persisted list of known property ids.
type IndexCache interface {
	Load(ctx context.Context) []uint64
	Merge(ctx context.Context, ids ...uint64) error
	Append(ctx context.Context, id uint64) error
	Remove(ctx context.Context, ids ...uint64) error
}

// Searcher finds candidate ids through the indexer.
type Searcher interface {
	Search(ctx context.Context, marker string, minRound, limit uint64) ([]uint64, error)
}

// Fetcher reads one property's current state; false means absent.
type Fetcher interface {
	Fetch(ctx context.Context, appID uint64) (*domain.Property, bool)
}

type Reconciler struct {
	Cache      IndexCache
	Discovery  Searcher
	Reader     Fetcher
	Collection *Collection

	Marker     string
	MinRound   uint64
	Limit      uint64
	Policy     Policy
	PruneStale bool
}

// DiscoverAll merges cached and discovered ids into one deduplicated listing set, ordered by
// cache order then discovery order, and installs it as the current Collection.
// It only fails when ctx is done, in which case the Collection is left untouched.
func (r *Reconciler) DiscoverAll(ctx context.Context) ([]domain.Property, error) {
	ctx, span := tracer.Start(ctx, "properties.DiscoverAll")
	defer span.End()

	seen := make(map[uint64]struct{})
	var stale []uint64
	listings := make([]domain.Property, 0)

	cached := r.Cache.Load(ctx)
	log.Debug().Int("count", len(cached)).Msg("Loaded cached property ids")
	for _, id := range cached {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		p, ok := r.Reader.Fetch(ctx, id)
		if !ok {
			stale = append(stale, id)
			continue
		}
		listings = append(listings, *p)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(listings) == 0 || r.Policy == PolicyAlways {
		found, err := r.Discovery.Search(ctx, r.Marker, r.MinRound, r.Limit)
		if err != nil {
			log.Error().Err(err).Msg("Error in property transaction search")
		}
		for _, id := range found {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			p, ok := r.Reader.Fetch(ctx, id)
			if !ok {
				continue
			}
			listings = append(listings, *p)
		}
		if len(found) > 0 {
			if err := r.Cache.Merge(ctx, found...); err != nil {
				log.Error().Err(err).Msg("Error saving discovered property ids")
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if r.PruneStale && len(stale) > 0 {
		if err := r.Cache.Remove(ctx, stale...); err != nil {
			log.Error().Err(err).Msg("Error pruning stale property ids")
		} else {
			log.Info().Int("count", len(stale)).Msg("Pruned stale property ids")
		}
	}

	span.SetAttributes(attribute.Int("listings", len(listings)), attribute.Int("stale", len(stale)))
	if r.Collection != nil {
		r.Collection.Replace(listings)
	}
	log.Info().Int("count", len(listings)).Msg("Total properties found")
	return listings, nil
}

// Lookup fetches the given ids directly, skipping the cache and the search.
func (r *Reconciler) Lookup(ctx context.Context, ids []uint64) []domain.Property {
	ctx, span := tracer.Start(ctx, "properties.Lookup", trace.WithAttributes(attribute.Int("ids", len(ids))))
	defer span.End()

	out := make([]domain.Property, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.Reader.Fetch(ctx, id); ok {
			out = append(out, *p)
		}
	}
	return out
}
