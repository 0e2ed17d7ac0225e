package properties

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/pkg/codec"
	"property-dapp-backend/internal/pkg/metrics"

	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	//go:embed contracts/property_approval.teal
	approvalSource []byte
	//go:embed contracts/property_clear.teal
	clearSource []byte
)

// Global state budget of a property application. It cannot change after creation.
const (
	NumGlobalInts  = 3
	NumGlobalBytes = 4
	NumLocalInts   = 0
	NumLocalBytes  = 0
	MaxRating      = 5
)

// Confirmation rounds awaited per action before giving up.
const (
	CreateWaitRounds uint64 = 4
	DeleteWaitRounds uint64 = 4
	BuyWaitRounds    uint64 = 10
	RateWaitRounds   uint64 = 10
)

// Node is the algod capability the actions submit through.
type Node interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	Compile(ctx context.Context, source []byte) ([]byte, error)
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
	// WaitForConfirmation polls at most rounds rounds and fails with domain.ErrConfirmationTimeout
	// or domain.ErrTransactionRejected.
	WaitForConfirmation(ctx context.Context, txID string, rounds uint64) (*Confirmation, error)
}

// Confirmation is the pending-transaction info of a confirmed transaction.
type Confirmation struct {
	TxID             string
	ConfirmedRound   uint64
	ApplicationIndex uint64
}

// Wallet signs transaction groups on behalf of its accounts.
type Wallet interface {
	Connect(ctx context.Context) ([]string, error)
	Disconnect(ctx context.Context) error
	// SignGroups returns the concatenated signed transactions, ready for submission.
	SignGroups(ctx context.Context, groups [][]types.Transaction) ([]byte, error)
}

// EventRecorder keeps a log of confirmed actions.
type EventRecorder interface {
	Record(ctx context.Context, e *domain.PropertyEvent) error
}

type CreateInput struct {
	Title    string `json:"title"`
	Image    string `json:"image"`
	Location string `json:"location"`
	Price    uint64 `json:"price"`
}

// ActionResult is the normalized outcome of a confirmed action.
type ActionResult struct {
	Action         string           `json:"action"`
	TxID           string           `json:"tx_id"`
	AppID          uint64           `json:"app_id"`
	ConfirmedRound uint64           `json:"confirmed_round"`
	Property       *domain.Property `json:"property,omitempty"`
}

type Actions struct {
	Node       Node
	Wallet     Wallet
	Reader     Fetcher
	Cache      IndexCache
	Collection *Collection
	Events     EventRecorder
	Marker     string

	compileMu sync.Mutex
	approval  []byte
	clearProg []byte
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Image) == "" || strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("%w: All fields are required", ErrValidation)
	}
	if in.Price == 0 {
		return fmt.Errorf("%w: Price must be greater than 0", ErrValidation)
	}
	return nil
}

func decodeSender(sender string) (types.Address, error) {
	addr, err := types.DecodeAddress(sender)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: invalid sender address", ErrValidation)
	}
	return addr, nil
}

// Create deploys a new property application and returns it once confirmed and re-read.
func (a *Actions) Create(ctx context.Context, sender string, in CreateInput) (*ActionResult, error) {
	ctx, span := tracer.Start(ctx, "properties.Create")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, a.fail(span, domain.EventCreated, err)
	}
	from, err := decodeSender(sender)
	if err != nil {
		return nil, a.fail(span, domain.EventCreated, err)
	}
	log.Info().Str("sender", sender).Str("title", in.Title).Uint64("price", in.Price).Msg("Adding property")

	sp, err := a.Node.SuggestedParams(ctx)
	if err != nil {
		return nil, a.fail(span, domain.EventCreated, fmt.Errorf("%w: suggested params: %v", ErrSubmission, err))
	}
	approval, clearProg, err := a.programs(ctx)
	if err != nil {
		return nil, a.fail(span, domain.EventCreated, err)
	}

	args := [][]byte{
		codec.EncodeField(in.Title),
		codec.EncodeField(in.Image),
		codec.EncodeField(in.Location),
		codec.EncodeField(sender),
		codec.EncodeUint64(in.Price),
	}
	tx, err := transaction.MakeApplicationCreateTx(false, approval, clearProg,
		types.StateSchema{NumUint: NumGlobalInts, NumByteSlice: NumGlobalBytes},
		types.StateSchema{NumUint: NumLocalInts, NumByteSlice: NumLocalBytes},
		args, nil, nil, nil, sp, from, codec.EncodeField(a.Marker), types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return nil, a.fail(span, domain.EventCreated, buildError(err))
	}

	conf, err := a.submit(ctx, [][]types.Transaction{{tx}}, CreateWaitRounds)
	if err != nil {
		return nil, a.fail(span, domain.EventCreated, err)
	}
	if conf.ApplicationIndex == 0 {
		return nil, a.fail(span, domain.EventCreated, fmt.Errorf("%w: no application index in confirmed transaction %s", ErrSubmission, conf.TxID))
	}
	appID := conf.ApplicationIndex
	span.SetAttributes(attribute.Int64("app_id", int64(appID)))
	log.Info().Uint64("app_id", appID).Str("tx_id", conf.TxID).Uint64("round", conf.ConfirmedRound).Msg("Created new property")

	if err := a.Cache.Append(ctx, appID); err != nil {
		log.Error().Err(err).Uint64("app_id", appID).Msg("Error saving app id to index cache")
	}
	result := &ActionResult{Action: domain.EventCreated, TxID: conf.TxID, AppID: appID, ConfirmedRound: conf.ConfirmedRound}
	result.Property = a.refresh(ctx, appID)
	a.record(ctx, result, sender, map[string]interface{}{"title": in.Title, "location": in.Location, "price": in.Price})
	metrics.Actions.WithLabelValues(domain.EventCreated, "ok").Inc()
	return result, nil
}

// Buy pays the listing price to the owner and marks the listing purchased, as one atomic group.
func (a *Actions) Buy(ctx context.Context, sender string, appID uint64) (*ActionResult, error) {
	ctx, span := tracer.Start(ctx, "properties.Buy", trace.WithAttributes(attribute.Int64("app_id", int64(appID))))
	defer span.End()

	from, err := decodeSender(sender)
	if err != nil {
		return nil, a.fail(span, domain.EventBought, err)
	}
	p, ok := a.Reader.Fetch(ctx, appID)
	if !ok {
		return nil, a.fail(span, domain.EventBought, fmt.Errorf("%w: %d", ErrPropertyNotFound, appID))
	}
	if p.Purchased() {
		return nil, a.fail(span, domain.EventBought, ErrAlreadyPurchased)
	}
	if p.Owner == sender {
		return nil, a.fail(span, domain.EventBought, ErrOwnPurchase)
	}
	if _, err := types.DecodeAddress(p.Owner); err != nil {
		return nil, a.fail(span, domain.EventBought, fmt.Errorf("%w: owner address %q", ErrValidation, p.Owner))
	}
	log.Info().Str("sender", sender).Uint64("app_id", appID).Uint64("price", p.Price).Msg("Buying property")

	sp, err := a.Node.SuggestedParams(ctx)
	if err != nil {
		return nil, a.fail(span, domain.EventBought, fmt.Errorf("%w: suggested params: %v", ErrSubmission, err))
	}
	call, err := appCall(sp, from, appID, [][]byte{codec.EncodeField("buy"), codec.EncodeField(sender)})
	if err != nil {
		return nil, a.fail(span, domain.EventBought, buildError(err))
	}
	pay, err := transaction.MakePaymentTxn(sender, p.Owner, p.Price, nil, "", sp)
	if err != nil {
		return nil, a.fail(span, domain.EventBought, buildError(err))
	}
	group, err := transaction.AssignGroupID([]types.Transaction{call, pay}, "")
	if err != nil {
		return nil, a.fail(span, domain.EventBought, fmt.Errorf("%w: group id: %v", ErrSubmission, err))
	}

	conf, err := a.submit(ctx, [][]types.Transaction{group}, BuyWaitRounds)
	if err != nil {
		return nil, a.fail(span, domain.EventBought, err)
	}
	result := &ActionResult{Action: domain.EventBought, TxID: conf.TxID, AppID: appID, ConfirmedRound: conf.ConfirmedRound}
	result.Property = a.refresh(ctx, appID)
	a.record(ctx, result, sender, map[string]interface{}{"price": p.Price, "owner": p.Owner})
	metrics.Actions.WithLabelValues(domain.EventBought, "ok").Inc()
	return result, nil
}

// Rate stores a 1..MaxRating rating on the listing.
func (a *Actions) Rate(ctx context.Context, sender string, appID uint64, rating uint64) (*ActionResult, error) {
	ctx, span := tracer.Start(ctx, "properties.Rate", trace.WithAttributes(attribute.Int64("app_id", int64(appID))))
	defer span.End()

	if rating < 1 || rating > MaxRating {
		return nil, a.fail(span, domain.EventRated, fmt.Errorf("%w: Rating must be between 1 and %d", ErrValidation, MaxRating))
	}
	from, err := decodeSender(sender)
	if err != nil {
		return nil, a.fail(span, domain.EventRated, err)
	}
	if _, ok := a.Reader.Fetch(ctx, appID); !ok {
		return nil, a.fail(span, domain.EventRated, fmt.Errorf("%w: %d", ErrPropertyNotFound, appID))
	}
	log.Info().Str("sender", sender).Uint64("app_id", appID).Uint64("rate", rating).Msg("Rating property")

	sp, err := a.Node.SuggestedParams(ctx)
	if err != nil {
		return nil, a.fail(span, domain.EventRated, fmt.Errorf("%w: suggested params: %v", ErrSubmission, err))
	}
	call, err := appCall(sp, from, appID, [][]byte{codec.EncodeField("rate"), codec.EncodeUint64(rating)})
	if err != nil {
		return nil, a.fail(span, domain.EventRated, buildError(err))
	}

	conf, err := a.submit(ctx, [][]types.Transaction{{call}}, RateWaitRounds)
	if err != nil {
		return nil, a.fail(span, domain.EventRated, err)
	}
	result := &ActionResult{Action: domain.EventRated, TxID: conf.TxID, AppID: appID, ConfirmedRound: conf.ConfirmedRound}
	result.Property = a.refresh(ctx, appID)
	a.record(ctx, result, sender, map[string]interface{}{"rate": rating})
	metrics.Actions.WithLabelValues(domain.EventRated, "ok").Inc()
	return result, nil
}

// Delete destroys the property application. The id stays in the index cache and reads back as absent.
func (a *Actions) Delete(ctx context.Context, sender string, appID uint64) (*ActionResult, error) {
	ctx, span := tracer.Start(ctx, "properties.Delete", trace.WithAttributes(attribute.Int64("app_id", int64(appID))))
	defer span.End()

	from, err := decodeSender(sender)
	if err != nil {
		return nil, a.fail(span, domain.EventDeleted, err)
	}
	if p, ok := a.Reader.Fetch(ctx, appID); ok && p.Owner != sender {
		return nil, a.fail(span, domain.EventDeleted, ErrNotOwner)
	}
	log.Info().Str("sender", sender).Uint64("app_id", appID).Msg("Deleting application")

	sp, err := a.Node.SuggestedParams(ctx)
	if err != nil {
		return nil, a.fail(span, domain.EventDeleted, fmt.Errorf("%w: suggested params: %v", ErrSubmission, err))
	}
	tx, err := transaction.MakeApplicationDeleteTx(appID, nil, nil, nil, nil, sp, from, nil, types.Digest{}, [32]byte{}, types.Address{})
	if err != nil {
		return nil, a.fail(span, domain.EventDeleted, buildError(err))
	}

	conf, err := a.submit(ctx, [][]types.Transaction{{tx}}, DeleteWaitRounds)
	if err != nil {
		return nil, a.fail(span, domain.EventDeleted, err)
	}
	if a.Collection != nil {
		a.Collection.Remove(appID)
	}
	log.Info().Uint64("app_id", appID).Str("tx_id", conf.TxID).Uint64("round", conf.ConfirmedRound).Msg("Deleted property")
	result := &ActionResult{Action: domain.EventDeleted, TxID: conf.TxID, AppID: appID, ConfirmedRound: conf.ConfirmedRound}
	a.record(ctx, result, sender, nil)
	metrics.Actions.WithLabelValues(domain.EventDeleted, "ok").Inc()
	return result, nil
}

// submit signs, sends and awaits the groups. The first transaction's id identifies the submission.
func (a *Actions) submit(ctx context.Context, groups [][]types.Transaction, rounds uint64) (*Confirmation, error) {
	signed, err := a.Wallet.SignGroups(ctx, groups)
	if err != nil {
		if errors.Is(err, domain.ErrSignerMismatch) || errors.Is(err, domain.ErrWalletNotConnected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	txID, err := a.Node.SendRawTransaction(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	log.Info().Str("tx_id", txID).Msg("Transaction sent, waiting for confirmation")
	conf, err := a.Node.WaitForConfirmation(ctx, txID, rounds)
	if err != nil {
		if errors.Is(err, domain.ErrConfirmationTimeout) || errors.Is(err, domain.ErrTransactionRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if conf.TxID == "" {
		conf.TxID = txID
	}
	return conf, nil
}

// refresh re-reads appID and applies the result to the Collection.
func (a *Actions) refresh(ctx context.Context, appID uint64) *domain.Property {
	p, ok := a.Reader.Fetch(ctx, appID)
	if !ok {
		log.Warn().Uint64("app_id", appID).Msg("Confirmed property not readable yet")
		return nil
	}
	if a.Collection != nil {
		a.Collection.Upsert(*p)
	}
	return p
}

func (a *Actions) record(ctx context.Context, r *ActionResult, sender string, data map[string]interface{}) {
	if a.Events == nil {
		return
	}
	var raw []byte
	if data != nil {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			log.Warn().Err(err).Uint64("app_id", r.AppID).Str("event", r.Action).Msg("Dropping unencodable event data")
			raw = nil
		}
	}
	err := a.Events.Record(ctx, &domain.PropertyEvent{
		AppID:          r.AppID,
		EventType:      r.Action,
		TxID:           r.TxID,
		Sender:         sender,
		ConfirmedRound: r.ConfirmedRound,
		EventData:      raw,
	})
	if err != nil {
		log.Error().Err(err).Uint64("app_id", r.AppID).Str("event", r.Action).Msg("Error recording property event")
	}
}

func (a *Actions) fail(span trace.Span, action string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.Actions.WithLabelValues(action, "error").Inc()
	log.Error().Err(err).Str("action", action).Msg("Property action failed")
	return err
}

// programs compiles the approval and clear programs once and reuses the bytecode.
func (a *Actions) programs(ctx context.Context) ([]byte, []byte, error) {
	a.compileMu.Lock()
	defer a.compileMu.Unlock()
	if a.approval != nil && a.clearProg != nil {
		return a.approval, a.clearProg, nil
	}
	approval, err := a.Node.Compile(ctx, approvalSource)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: compile approval program: %v", ErrSubmission, err)
	}
	clearProg, err := a.Node.Compile(ctx, clearSource)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: compile clear program: %v", ErrSubmission, err)
	}
	a.approval, a.clearProg = approval, clearProg
	return approval, clearProg, nil
}

// appCall builds a no-op call; the SDK applies the per-byte fee with its minimum.
func appCall(sp types.SuggestedParams, from types.Address, appID uint64, args [][]byte) (types.Transaction, error) {
	return transaction.MakeApplicationNoOpTx(appID, args, nil, nil, nil, sp, from, nil, types.Digest{}, [32]byte{}, types.Address{})
}

func buildError(err error) error {
	return fmt.Errorf("%w: build transaction: %v", ErrSubmission, err)
}
