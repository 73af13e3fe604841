package custody

import "errors"

var (
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorizedDebit = errors.New("authority does not own the source account")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrSelfTransfer      = errors.New("source and destination accounts must differ")
	ErrNotWallet         = errors.New("deposits are only accepted into wallet accounts")
)
