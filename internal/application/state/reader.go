package state

import (
	"context"
	"errors"

	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/pkg/codec"
	"property-dapp-backend/internal/pkg/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrApplicationNotFound is returned by lookups when the application id is unknown or deleted.
var ErrApplicationNotFound = errors.New("Application not found")

// ApplicationLookup fetches an application's current global state.
type ApplicationLookup interface {
	LookupApplication(ctx context.Context, appID uint64) (*domain.ApplicationState, error)
}

// Reader reads through Node first, since the indexer trails it by a few rounds. Lookup (the
// indexer) is only asked when the node is unset or fails for a reason other than not found.
// Limiter throttles the indexer calls.
type Reader struct {
	Node    ApplicationLookup
	Lookup  ApplicationLookup
	Limiter *rate.Limiter
}

// Fetch returns the decoded property for appID. The second result is false when the
// application does not exist, has been deleted, or could not be read; lookup failures are
// logged here and never returned.
func (r *Reader) Fetch(ctx context.Context, appID uint64) (*domain.Property, bool) {
	if r.Node != nil {
		app, err := r.Node.LookupApplication(ctx, appID)
		if err == nil || errors.Is(err, ErrApplicationNotFound) {
			return r.result(appID, app, err)
		}
		log.Warn().Err(err).Uint64("app_id", appID).Msg("Node lookup failed, falling back to indexer")
	}
	if r.Lookup == nil {
		metrics.StateFetches.WithLabelValues("error").Inc()
		return nil, false
	}
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			metrics.StateFetches.WithLabelValues("error").Inc()
			log.Warn().Err(err).Uint64("app_id", appID).Msg("Property fetch abandoned")
			return nil, false
		}
	}
	app, err := r.Lookup.LookupApplication(ctx, appID)
	return r.result(appID, app, err)
}

func (r *Reader) result(appID uint64, app *domain.ApplicationState, err error) (*domain.Property, bool) {
	if err != nil {
		if errors.Is(err, ErrApplicationNotFound) {
			metrics.StateFetches.WithLabelValues("absent").Inc()
			log.Info().Uint64("app_id", appID).Msg("Application not found")
			return nil, false
		}
		metrics.StateFetches.WithLabelValues("error").Inc()
		log.Error().Err(err).Uint64("app_id", appID).Msg("Error fetching property")
		return nil, false
	}
	if app == nil || app.Deleted {
		metrics.StateFetches.WithLabelValues("absent").Inc()
		log.Info().Uint64("app_id", appID).Msg("Application not found or deleted")
		return nil, false
	}
	p := Decode(*app)
	p.AppID = appID
	metrics.StateFetches.WithLabelValues("found").Inc()
	return &p, true
}

// FetchMany fetches ids in order and drops the absent ones.
func (r *Reader) FetchMany(ctx context.Context, ids []uint64) []domain.Property {
	out := make([]domain.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.Fetch(ctx, id); ok {
			out = append(out, *p)
		}
	}
	return out
}

var (
	keyTitle    = codec.EncodeBase64Key(domain.KeyTitle)
	keyImage    = codec.EncodeBase64Key(domain.KeyImage)
	keyLocation = codec.EncodeBase64Key(domain.KeyLocation)
	keyPrice    = codec.EncodeBase64Key(domain.KeyPrice)
	keyBought   = codec.EncodeBase64Key(domain.KeyBought)
	keyRate     = codec.EncodeBase64Key(domain.KeyRate)
	keyBuyer    = codec.EncodeBase64Key(domain.KeyBuyer)
)

// Decode maps global state onto a Property. Missing keys and keys holding the wrong
// value type leave the zero value; unknown keys are ignored.
func Decode(app domain.ApplicationState) domain.Property {
	p := domain.Property{AppID: app.AppID, Owner: app.Creator}
	for _, kv := range app.GlobalState {
		switch kv.Key {
		case keyTitle:
			p.Title = bytesValue(kv)
		case keyImage:
			p.Image = bytesValue(kv)
		case keyLocation:
			p.Location = bytesValue(kv)
		case keyBuyer:
			p.Buyer = bytesValue(kv)
		case keyPrice:
			p.Price = uintValue(kv)
		case keyBought:
			p.Bought = uintValue(kv)
		case keyRate:
			p.Rate = uintValue(kv)
		}
	}
	return p
}

func bytesValue(kv domain.StateValue) string {
	if kv.Type != domain.StateTypeBytes {
		return ""
	}
	return codec.DecodeBase64Field(kv.Bytes)
}

func uintValue(kv domain.StateValue) uint64 {
	if kv.Type != domain.StateTypeUint {
		return 0
	}
	return kv.Uint
}
