package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the closed set of account roles. It drives who may send and who
// may receive money.
type Role string

const (
	RoleOrdinary Role = "ordinary"
	RoleMerchant Role = "merchant"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleOrdinary, RoleMerchant:
		return true
	}
	return false
}

// Account holds identity, role and the current balance. The balance is only
// ever mutated inside the transfer unit of work.
type Account struct {
	ID        uuid.UUID
	Role      Role
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanSend reports whether the account may initiate transfers. Merchants are
// receive-only.
func (a *Account) CanSend() bool {
	switch a.Role {
	case RoleOrdinary:
		return true
	case RoleMerchant:
		return false
	}
	return false
}

// CanReceive reports whether the account may be credited.
func (a *Account) CanReceive() bool {
	switch a.Role {
	case RoleOrdinary, RoleMerchant:
		return true
	}
	return false
}

// HasSufficientFunds is the advisory balance check. The authoritative check
// happens again against the locked row inside the unit of work.
func (a *Account) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Debit subtracts amount from the in-memory balance.
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !a.HasSufficientFunds(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit adds amount to the in-memory balance.
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}
