package algorand

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"property-dapp-backend/internal/application/properties"
	"property-dapp-backend/internal/application/state"
	"property-dapp-backend/internal/domain"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog/log"
)

// NodeClient submits transactions through an algod node.
type NodeClient struct {
	Algod *algod.Client
}

func NewNodeClient(server, token string) (*NodeClient, error) {
	c, err := algod.MakeClient(server, token)
	if err != nil {
		return nil, fmt.Errorf("algod client: %w", err)
	}
	return &NodeClient{Algod: c}, nil
}

func (n *NodeClient) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	return n.Algod.SuggestedParams().Do(ctx)
}

// Compile returns the bytecode of a TEAL source program.
func (n *NodeClient) Compile(ctx context.Context, source []byte) ([]byte, error) {
	res, err := n.Algod.TealCompile(source).Do(ctx)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(res.Result)
}

func (n *NodeClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	return n.Algod.SendRawTransaction(raw).Do(ctx)
}

// Ping reports whether the node answers status requests.
func (n *NodeClient) Ping(ctx context.Context) error {
	_, err := n.Algod.Status().Do(ctx)
	return err
}

// LookupApplication reads the application's current global state from the node. The node
// forgets deleted applications, so they come back as state.ErrApplicationNotFound.
func (n *NodeClient) LookupApplication(ctx context.Context, appID uint64) (*domain.ApplicationState, error) {
	app, err := n.Algod.GetApplicationByID(appID).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %d", state.ErrApplicationNotFound, appID)
		}
		return nil, err
	}
	return applicationState(app), nil
}

// WaitForConfirmation waits at most rounds rounds for txID to be confirmed.
func (n *NodeClient) WaitForConfirmation(ctx context.Context, txID string, rounds uint64) (*properties.Confirmation, error) {
	info, err := transaction.WaitForConfirmation(n.Algod, txID, rounds, ctx)
	if err != nil {
		return nil, confirmationError(txID, rounds, err)
	}
	log.Debug().Str("tx_id", txID).Uint64("round", info.ConfirmedRound).Msg("Transaction confirmed")
	return &properties.Confirmation{TxID: txID, ConfirmedRound: info.ConfirmedRound, ApplicationIndex: info.ApplicationIndex}, nil
}

// confirmationError maps the SDK's wait failures onto the domain errors callers branch on.
func confirmationError(txID string, rounds uint64, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "timed out"):
		return fmt.Errorf("%w: %s after %d rounds", domain.ErrConfirmationTimeout, txID, rounds)
	case strings.HasPrefix(msg, "Transaction rejected"):
		return fmt.Errorf("%w: %s", domain.ErrTransactionRejected, strings.TrimPrefix(msg, "Transaction rejected: "))
	}
	return err
}
