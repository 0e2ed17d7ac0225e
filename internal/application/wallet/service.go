package wallet

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"property-dapp-backend/internal/domain"
	"property-dapp-backend/internal/pkg/codec"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MaxQRSize     = 1024
)

// Signer is the account the server signs with.
type Signer interface {
	Connect(ctx context.Context) ([]string, error)
	Disconnect(ctx context.Context) error
	Connected() bool
	Address() string
}

// BalanceReader looks up an account balance in microAlgos.
type BalanceReader interface {
	AccountBalance(ctx context.Context, address string) (uint64, error)
}

type Account struct {
	Address     string `json:"address"`
	Connected   bool   `json:"connected"`
	Balance     uint64 `json:"balance"`
	BalanceAlgo string `json:"balance_algo"`
}

type Service struct {
	Wallet   Signer
	Balances BalanceReader
}

func (s *Service) Connect(ctx context.Context) (*Account, error) {
	if _, err := s.Wallet.Connect(ctx); err != nil {
		return nil, err
	}
	return s.Account(ctx)
}

func (s *Service) Disconnect(ctx context.Context) error {
	return s.Wallet.Disconnect(ctx)
}

// Account returns the connected address and its balance. A failed balance lookup is logged
// and reported as zero.
func (s *Service) Account(ctx context.Context) (*Account, error) {
	if !s.Wallet.Connected() {
		return nil, domain.ErrWalletNotConnected
	}
	acct := &Account{Address: s.Wallet.Address(), Connected: true}
	if s.Balances != nil {
		bal, err := s.Balances.AccountBalance(ctx, acct.Address)
		if err != nil {
			log.Warn().Err(err).Str("address", acct.Address).Msg("Error fetching wallet balance")
		} else {
			acct.Balance = bal
		}
	}
	acct.BalanceAlgo = codec.FormatMicroAlgos(acct.Balance)
	return acct, nil
}

// QRCode renders the wallet address as a PNG QR code.
func (s *Service) QRCode(size int) ([]byte, error) {
	if !s.Wallet.Connected() {
		return nil, domain.ErrWalletNotConnected
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > MaxQRSize {
		size = MaxQRSize
	}
	qr, err := qrcode.New("algorand://"+s.Wallet.Address(), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("failed to encode QR code to PNG: %w", err)
	}
	return buf.Bytes(), nil
}
