package domain

import "errors"

// Expected business outcomes. The HTTP layer maps these to status codes with
// errors.Is; anything outside this set is an internal failure.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrSenderNotFound     = errors.New("sender account not found")
	ErrReceiverNotFound   = errors.New("receiver account not found")
	ErrSenderIneligible   = errors.New("sender account cannot initiate transfers")
	ErrReceiverIneligible = errors.New("receiver account cannot receive transfers")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateTransfer  = errors.New("idempotency key already used")
	ErrNotAuthorized      = errors.New("transfer not authorized")
	ErrInvalidAmount      = errors.New("transfer amount must be greater than zero")
	ErrInvalidRole        = errors.New("unknown account role")
)
