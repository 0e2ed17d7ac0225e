package properties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciler(t *testing.T, reader *fakeReader, search *fakeSearcher, cached ...uint64) *Reconciler {
	return &Reconciler{
		Cache:      setupCache(t, cached...),
		Discovery:  search,
		Reader:     reader,
		Collection: NewCollection(),
		Marker:     "property-dapp:uv2",
		MinRound:   21540981,
		Limit:      10,
		Policy:     PolicyWhenEmpty,
	}
}

func TestDiscoverAll_SkipsAbsentCachedIDs(t *testing.T) {
	owner := newAddress(t).String()
	reader := newFakeReader(listing(5, owner))
	search := &fakeSearcher{}
	r := newReconciler(t, reader, search, 5, 7)

	got, err := r.DiscoverAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, ids(got))
	assert.Equal(t, 0, search.calls)
	assert.Equal(t, []uint64{5, 7}, r.Cache.Load(context.Background()))
	assert.Equal(t, []uint64{5}, ids(r.Collection.List()))
}

func TestDiscoverAll_EmptyCacheUsesSearch(t *testing.T) {
	owner := newAddress(t).String()
	reader := newFakeReader(listing(12, owner), listing(13, owner))
	search := &fakeSearcher{ids: []uint64{12, 13}}
	r := newReconciler(t, reader, search)

	got, err := r.DiscoverAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{12, 13}, ids(got))
	assert.Equal(t, 1, search.calls)
	assert.Equal(t, []uint64{12, 13}, r.Cache.Load(context.Background()))
}

func TestDiscoverAll_PolicyAlwaysDeduplicates(t *testing.T) {
	owner := newAddress(t).String()
	reader := newFakeReader(listing(5, owner), listing(6, owner))
	search := &fakeSearcher{ids: []uint64{6, 5, 6}}
	r := newReconciler(t, reader, search, 5)
	r.Policy = PolicyAlways

	got, err := r.DiscoverAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 6}, ids(got))
	assert.Equal(t, 1, reader.calls[5])
	assert.Equal(t, 1, reader.calls[6])
	assert.Equal(t, []uint64{5, 6}, r.Cache.Load(context.Background()))
}

func TestDiscoverAll_SearchFailureYieldsCachedOnly(t *testing.T) {
	reader := newFakeReader()
	search := &fakeSearcher{err: errIndexer}
	r := newReconciler(t, reader, search, 9)

	got, err := r.DiscoverAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []uint64{9}, r.Cache.Load(context.Background()))
}

func TestDiscoverAll_PrunesStaleWhenEnabled(t *testing.T) {
	owner := newAddress(t).String()
	reader := newFakeReader(listing(5, owner))
	r := newReconciler(t, reader, &fakeSearcher{}, 5, 7)
	r.PruneStale = true

	_, err := r.DiscoverAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, r.Cache.Load(context.Background()))
}

func TestDiscoverAll_CanceledKeepsCollection(t *testing.T) {
	owner := newAddress(t).String()
	reader := newFakeReader(listing(5, owner))
	r := newReconciler(t, reader, &fakeSearcher{}, 5)
	r.Collection.Upsert(listing(1, owner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.DiscoverAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{1}, ids(r.Collection.List()))
}

func TestLookup_DirectFetch(t *testing.T) {
	owner := newAddress(t).String()
	reader := newFakeReader(listing(3, owner), listing(4, owner))
	search := &fakeSearcher{}
	r := newReconciler(t, reader, search)

	got := r.Lookup(context.Background(), []uint64{4, 99, 3, 4})
	assert.Equal(t, []uint64{4, 3}, ids(got))
	assert.Equal(t, 0, search.calls)
	assert.Empty(t, r.Cache.Load(context.Background()))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyWhenEmpty, p)
	p, err = ParsePolicy("always")
	require.NoError(t, err)
	assert.Equal(t, PolicyAlways, p)
	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}
