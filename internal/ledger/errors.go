package ledger

import "errors"

// Domain errors. The bot maps each of these to a user-facing reply and the
// HTTP handlers map them to status codes; anything else is an internal error.
var (
	ErrAlreadyExists       = errors.New("wallet already exists")
	ErrNotFound            = errors.New("wallet not found")
	ErrNoUpdates           = errors.New("no updates given")
	ErrNotEmpty            = errors.New("wallet balance is not zero")
	ErrInvalidWalletType   = errors.New("invalid wallet type")
	ErrInvalidWalletName   = errors.New("invalid wallet name")
	ErrWalletNotFound      = errors.New("wallet not found for entry")
	ErrFromWalletNotFound  = errors.New("source wallet not found")
	ErrToWalletNotFound    = errors.New("destination wallet not found")
	ErrSameWallet          = errors.New("source and destination are the same wallet")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be > 0")
	ErrBalanceOutOfRange   = errors.New("balance out of range")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidMonth        = errors.New("invalid month, want YYYY-MM")
)
