package discovery

import (
	"context"
	"fmt"

	"property-dapp-backend/internal/pkg/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Bounds for the search limit. Larger pages make the indexer query slow enough to time out.
const (
	DefaultLimit uint64 = 10
	MaxLimit     uint64 = 25
)

// TransactionSearcher finds application-call transactions by note prefix.
// It returns the ids of the applications those transactions created (0 for non-creations).
type TransactionSearcher interface {
	SearchAppCalls(ctx context.Context, notePrefix []byte, minRound, limit uint64) ([]uint64, error)
}

type Service struct {
	Searcher TransactionSearcher
	Limiter  *rate.Limiter
}

// ClampLimit bounds limit to 1..MaxLimit, using DefaultLimit for 0.
func ClampLimit(limit uint64) uint64 {
	if limit == 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Search returns candidate property application ids created by transactions tagged with marker.
// On failure it returns an empty result together with the error so callers can log and move on.
func (s *Service) Search(ctx context.Context, marker string, minRound, limit uint64) ([]uint64, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			metrics.DiscoverySearches.WithLabelValues("error").Inc()
			return []uint64{}, fmt.Errorf("search property transactions: %w", err)
		}
	}
	limit = ClampLimit(limit)
	created, err := s.Searcher.SearchAppCalls(ctx, []byte(marker), minRound, limit)
	if err != nil {
		metrics.DiscoverySearches.WithLabelValues("error").Inc()
		return []uint64{}, fmt.Errorf("search property transactions: %w", err)
	}
	ids := make([]uint64, 0, len(created))
	for _, id := range created {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	metrics.DiscoverySearches.WithLabelValues("ok").Inc()
	log.Debug().Str("marker", marker).Uint64("min_round", minRound).Int("found", len(ids)).Msg("Searched property transactions")
	return ids, nil
}
