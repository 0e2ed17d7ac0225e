package properties

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"property-dapp-backend/internal/application/indexcache"
	"property-dapp-backend/internal/application/state"
	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/pkg/codec"

	"github.com/alicebob/miniredis/v2"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu    sync.Mutex
	state map[uint64]domain.Property
	calls map[uint64]int
}

func newFakeReader(props ...domain.Property) *fakeReader {
	r := &fakeReader{state: map[uint64]domain.Property{}, calls: map[uint64]int{}}
	for _, p := range props {
		r.state[p.AppID] = p
	}
	return r
}

func (r *fakeReader) Fetch(_ context.Context, appID uint64) (*domain.Property, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[appID]++
	p, ok := r.state[appID]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (r *fakeReader) set(p domain.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[p.AppID] = p
}

type fakeSearcher struct {
	ids   []uint64
	err   error
	calls int
}

func (s *fakeSearcher) Search(_ context.Context, _ string, _, _ uint64) ([]uint64, error) {
	s.calls++
	if s.err != nil {
		return []uint64{}, s.err
	}
	return s.ids, nil
}

type fakeNode struct {
	calls   int
	sent    [][]byte
	appID   uint64
	fee     uint64
	waitErr error
	onSend  func()
}

func (n *fakeNode) SuggestedParams(context.Context) (types.SuggestedParams, error) {
	n.calls++
	return types.SuggestedParams{
		Fee:             types.MicroAlgos(n.fee),
		GenesisID:       "testnet-v1.0",
		GenesisHash:     make([]byte, 32),
		FirstRoundValid: 1000,
		LastRoundValid:  2000,
		MinFee:          1000,
	}, nil
}

func (n *fakeNode) Compile(_ context.Context, source []byte) ([]byte, error) {
	n.calls++
	return []byte{0x06, byte(len(source))}, nil
}

func (n *fakeNode) SendRawTransaction(_ context.Context, raw []byte) (string, error) {
	n.calls++
	n.sent = append(n.sent, raw)
	if n.onSend != nil {
		n.onSend()
	}
	return fmt.Sprintf("TX%d", len(n.sent)), nil
}

func (n *fakeNode) WaitForConfirmation(_ context.Context, txID string, _ uint64) (*Confirmation, error) {
	n.calls++
	if n.waitErr != nil {
		return nil, n.waitErr
	}
	return &Confirmation{TxID: txID, ConfirmedRound: 1005, ApplicationIndex: n.appID}, nil
}

type fakeWallet struct {
	addr   types.Address
	groups [][]types.Transaction
}

func (w *fakeWallet) Connect(context.Context) ([]string, error) {
	return []string{w.addr.String()}, nil
}

func (w *fakeWallet) Disconnect(context.Context) error { return nil }

func (w *fakeWallet) SignGroups(_ context.Context, groups [][]types.Transaction) ([]byte, error) {
	for _, g := range groups {
		for _, tx := range g {
			if tx.Sender != w.addr {
				return nil, domain.ErrSignerMismatch
			}
		}
		w.groups = append(w.groups, g)
	}
	return []byte("signed"), nil
}

type fakeRecorder struct {
	events []*domain.PropertyEvent
	err    error
}

func (r *fakeRecorder) Record(_ context.Context, e *domain.PropertyEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// chainLookup serves raw application state, standing in for the node or the indexer.
type chainLookup struct {
	mu    sync.Mutex
	apps  map[uint64]*domain.ApplicationState
	calls int
}

func newChainLookup(props ...domain.Property) *chainLookup {
	l := &chainLookup{apps: map[uint64]*domain.ApplicationState{}}
	for _, p := range props {
		l.put(p)
	}
	return l
}

func (l *chainLookup) LookupApplication(_ context.Context, appID uint64) (*domain.ApplicationState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	app, ok := l.apps[appID]
	if !ok {
		return nil, state.ErrApplicationNotFound
	}
	return app, nil
}

func (l *chainLookup) put(p domain.Property) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apps[p.AppID] = &domain.ApplicationState{
		AppID:   p.AppID,
		Creator: p.Owner,
		GlobalState: []domain.StateValue{
			{Key: codec.EncodeBase64Key(domain.KeyTitle), Type: domain.StateTypeBytes, Bytes: codec.EncodeBase64Key(p.Title)},
			{Key: codec.EncodeBase64Key(domain.KeyImage), Type: domain.StateTypeBytes, Bytes: codec.EncodeBase64Key(p.Image)},
			{Key: codec.EncodeBase64Key(domain.KeyLocation), Type: domain.StateTypeBytes, Bytes: codec.EncodeBase64Key(p.Location)},
			{Key: codec.EncodeBase64Key(domain.KeyPrice), Type: domain.StateTypeUint, Uint: p.Price},
		},
	}
}

func (l *chainLookup) drop(appID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.apps, appID)
}

var errIndexer = errors.New("indexer unavailable")

func newAddress(t *testing.T) types.Address {
	t.Helper()
	return crypto.GenerateAccount().Address
}

func setupCache(t *testing.T, ids ...uint64) *indexcache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	c := indexcache.New(&indexcache.RedisStore{Rdb: rdb})
	require.NoError(t, c.Init(context.Background()))
	if len(ids) > 0 {
		require.NoError(t, c.Merge(context.Background(), ids...))
	}
	return c
}

func listing(id uint64, owner string) domain.Property {
	return domain.Property{
		AppID:    id,
		Title:    fmt.Sprintf("House %d", id),
		Image:    "https://example.com/house.png",
		Location: "Lagos",
		Price:    1_500_000,
		Owner:    owner,
	}
}

func ids(list []domain.Property) []uint64 {
	out := make([]uint64, 0, len(list))
	for _, p := range list {
		out = append(out, p.AppID)
	}
	return out
}
