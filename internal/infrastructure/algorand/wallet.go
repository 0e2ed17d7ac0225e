package algorand

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"

	"property-dapp-backend/internal/domain"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog/log"
)

// MnemonicWallet signs with a single account recovered from a 25-word mnemonic.
// It starts disconnected; SignGroups fails until Connect is called.
type MnemonicWallet struct {
	mu        sync.RWMutex
	account   crypto.Account
	connected bool
}

func NewMnemonicWallet(phrase string) (*MnemonicWallet, error) {
	sk, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return nil, fmt.Errorf("wallet mnemonic: %w", err)
	}
	return NewKeyWallet(sk)
}

func NewKeyWallet(sk ed25519.PrivateKey) (*MnemonicWallet, error) {
	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("wallet key: %w", err)
	}
	return &MnemonicWallet{account: acct}, nil
}

// Address returns the wallet account address whether or not it is connected.
func (w *MnemonicWallet) Address() string {
	return w.account.Address.String()
}

func (w *MnemonicWallet) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *MnemonicWallet) Connect(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		w.connected = true
		log.Info().Str("address", w.account.Address.String()).Msg("Wallet connected")
	}
	return []string{w.account.Address.String()}, nil
}

func (w *MnemonicWallet) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.connected {
		w.connected = false
		log.Info().Str("address", w.account.Address.String()).Msg("Wallet disconnected")
	}
	return nil
}

// SignGroups signs every transaction and returns the concatenated signed bytes.
// Every sender must be the wallet account.
func (w *MnemonicWallet) SignGroups(ctx context.Context, groups [][]types.Transaction) ([]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.connected {
		return nil, domain.ErrWalletNotConnected
	}
	var out []byte
	for _, group := range groups {
		for _, tx := range group {
			if tx.Sender != w.account.Address {
				return nil, fmt.Errorf("%w: sender %s", domain.ErrSignerMismatch, tx.Sender.String())
			}
			_, signed, err := crypto.SignTransaction(w.account.PrivateKey, tx)
			if err != nil {
				return nil, err
			}
			out = append(out, signed...)
		}
	}
	return out, nil
}
