package domain

import "errors"

// Failures reported by the wallet and network collaborators.
var (
	ErrWalletNotConnected  = errors.New("Wallet is not connected")
	ErrSignerMismatch      = errors.New("Wallet does not hold the sender account")
	ErrConfirmationTimeout = errors.New("Transaction not confirmed in time")
	ErrTransactionRejected = errors.New("Transaction rejected by the network")
)
