package state

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"property-dapp-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	apps  map[uint64]*domain.ApplicationState
	fails map[uint64]error
	calls int
}

func (f *fakeLookup) LookupApplication(_ context.Context, appID uint64) (*domain.ApplicationState, error) {
	f.calls++
	if err, ok := f.fails[appID]; ok {
		return nil, err
	}
	app, ok := f.apps[appID]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func bytesKV(k, v string) domain.StateValue {
	return domain.StateValue{Key: b64(k), Type: domain.StateTypeBytes, Bytes: b64(v)}
}

func uintKV(k string, v uint64) domain.StateValue {
	return domain.StateValue{Key: b64(k), Type: domain.StateTypeUint, Uint: v}
}

func TestDecode_AllKeys(t *testing.T) {
	p := Decode(domain.ApplicationState{
		AppID:   5,
		Creator: "OWNER",
		GlobalState: []domain.StateValue{
			bytesKV("TITLE", "Lake house"),
			bytesKV("IMAGE", "https://img/1.png"),
			bytesKV("LOCATION", "Nairobi"),
			uintKV("PRICE", 2500000),
			uintKV("BOUGHT", 1),
			uintKV("RATE", 4),
			bytesKV("BUYER", "BUYER"),
			uintKV("UNKNOWN", 99),
		},
	})
	assert.Equal(t, domain.Property{
		AppID: 5, Title: "Lake house", Image: "https://img/1.png", Location: "Nairobi",
		Price: 2500000, Bought: 1, Rate: 4, Buyer: "BUYER", Owner: "OWNER",
	}, p)
	assert.True(t, p.Purchased())
}

func TestDecode_MissingAndMistypedKeysAreZero(t *testing.T) {
	p := Decode(domain.ApplicationState{
		Creator: "OWNER",
		GlobalState: []domain.StateValue{
			bytesKV("TITLE", "Flat"),
			{Key: b64("PRICE"), Type: domain.StateTypeBytes, Bytes: b64("oops")},
			{Key: b64("LOCATION"), Type: domain.StateTypeBytes, Bytes: "!!bad!!"},
		},
	})
	assert.Equal(t, "Flat", p.Title)
	assert.Equal(t, uint64(0), p.Price)
	assert.Equal(t, "", p.Location)
	assert.Equal(t, "", p.Buyer)
	assert.False(t, p.Purchased())
}

func TestFetch(t *testing.T) {
	r := &Reader{Lookup: &fakeLookup{
		apps: map[uint64]*domain.ApplicationState{
			5: {AppID: 5, Creator: "A", GlobalState: []domain.StateValue{bytesKV("TITLE", "Five")}},
			6: {AppID: 6, Creator: "A", Deleted: true},
		},
		fails: map[uint64]error{8: errors.New("connection reset")},
	}}
	ctx := context.Background()

	p, ok := r.Fetch(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, uint64(5), p.AppID)
	assert.Equal(t, "Five", p.Title)

	for _, id := range []uint64{6, 7, 8} {
		p, ok := r.Fetch(ctx, id)
		assert.False(t, ok, "id=%d", id)
		assert.Nil(t, p)
	}
}

func TestFetchMany_SkipsFailures(t *testing.T) {
	r := &Reader{Lookup: &fakeLookup{
		apps: map[uint64]*domain.ApplicationState{
			1: {AppID: 1, Creator: "A"},
			3: {AppID: 3, Creator: "B"},
		},
		fails: map[uint64]error{2: errors.New("timeout")},
	}}
	got := r.FetchMany(context.Background(), []uint64{1, 2, 3, 4})
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].AppID)
	assert.Equal(t, uint64(3), got[1].AppID)
}

func TestFetch_NodeIsAuthoritative(t *testing.T) {
	// The indexer still reports 11 after the node has dropped it.
	indexer := &fakeLookup{apps: map[uint64]*domain.ApplicationState{
		11: {AppID: 11, Creator: "A", GlobalState: []domain.StateValue{bytesKV("TITLE", "Stale")}},
		12: {AppID: 12, Creator: "A", GlobalState: []domain.StateValue{bytesKV("TITLE", "Old")}},
	}}
	node := &fakeLookup{apps: map[uint64]*domain.ApplicationState{
		12: {AppID: 12, Creator: "A", GlobalState: []domain.StateValue{bytesKV("TITLE", "New")}},
	}}
	r := &Reader{Node: node, Lookup: indexer}
	ctx := context.Background()

	p, ok := r.Fetch(ctx, 11)
	assert.False(t, ok)
	assert.Nil(t, p)

	p, ok = r.Fetch(ctx, 12)
	require.True(t, ok)
	assert.Equal(t, "New", p.Title)
	assert.Equal(t, 0, indexer.calls)
}

func TestFetch_NodeFailureFallsBackToIndexer(t *testing.T) {
	indexer := &fakeLookup{apps: map[uint64]*domain.ApplicationState{
		5: {AppID: 5, Creator: "A", GlobalState: []domain.StateValue{bytesKV("TITLE", "Five")}},
	}}
	node := &fakeLookup{fails: map[uint64]error{5: errors.New("HTTP 503: unavailable")}}
	r := &Reader{Node: node, Lookup: indexer}

	p, ok := r.Fetch(context.Background(), 5)
	require.True(t, ok)
	assert.Equal(t, "Five", p.Title)
	assert.Equal(t, 1, node.calls)
	assert.Equal(t, 1, indexer.calls)
}
