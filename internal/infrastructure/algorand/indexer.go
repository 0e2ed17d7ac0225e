package algorand

import (
	"context"
	"fmt"
	"strings"

	"property-dapp-backend/internal/application/state"
	"property-dapp-backend/internal/domain"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"
)

const appCallTxType = "appl"

// IndexerClient reads applications, accounts and transaction history from an indexer.
type IndexerClient struct {
	Indexer *indexer.Client
}

func NewIndexerClient(server, token string) (*IndexerClient, error) {
	c, err := indexer.MakeClient(server, token)
	if err != nil {
		return nil, fmt.Errorf("indexer client: %w", err)
	}
	return &IndexerClient{Indexer: c}, nil
}

// SearchAppCalls lists the applications created by app-call transactions carrying notePrefix.
func (i *IndexerClient) SearchAppCalls(ctx context.Context, notePrefix []byte, minRound, limit uint64) ([]uint64, error) {
	res, err := i.Indexer.SearchForTransactions().
		NotePrefix(notePrefix).
		TxType(appCallTxType).
		MinRound(minRound).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(res.Transactions))
	for _, tx := range res.Transactions {
		ids = append(ids, tx.CreatedApplicationIndex)
	}
	return ids, nil
}

// LookupApplication returns the application's global state, including deleted applications.
func (i *IndexerClient) LookupApplication(ctx context.Context, appID uint64) (*domain.ApplicationState, error) {
	res, err := i.Indexer.LookupApplicationByID(appID).IncludeAll(true).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %d", state.ErrApplicationNotFound, appID)
		}
		return nil, err
	}
	return applicationState(res.Application), nil
}

// applicationState reduces an application record, from either the node or the indexer, to its global state.
func applicationState(app models.Application) *domain.ApplicationState {
	out := &domain.ApplicationState{
		AppID:       app.Id,
		Creator:     app.Params.Creator,
		Deleted:     app.Deleted,
		GlobalState: make([]domain.StateValue, 0, len(app.Params.GlobalState)),
	}
	for _, kv := range app.Params.GlobalState {
		out.GlobalState = append(out.GlobalState, domain.StateValue{
			Key:   kv.Key,
			Type:  kv.Value.Type,
			Bytes: kv.Value.Bytes,
			Uint:  kv.Value.Uint,
		})
	}
	return out
}

// AccountBalance returns the account's balance in microAlgos.
func (i *IndexerClient) AccountBalance(ctx context.Context, address string) (uint64, error) {
	_, acct, err := i.Indexer.LookupAccountByID(address).Do(ctx)
	if err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

func (i *IndexerClient) Ping(ctx context.Context) error {
	_, err := i.Indexer.HealthCheck().Do(ctx)
	return err
}

// The SDK reports HTTP failures as plain errors carrying the status code.
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "HTTP 404") || strings.Contains(strings.ToLower(msg), "no application found")
}
