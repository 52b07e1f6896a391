package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus is the closed set of transfer outcomes.
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferApproved TransferStatus = "approved"
	TransferFailed   TransferStatus = "failed"
)

// Valid reports whether the status is one of the known values.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferApproved, TransferFailed:
		return true
	}
	return false
}

// Transfer is one money movement between two accounts. A row is only
// persisted at the end of a successful unit of work, already approved;
// the idempotency key is unique across all transfers.
type Transfer struct {
	ID             uuid.UUID
	SenderID       uuid.UUID
	ReceiverID     uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string
	Status         TransferStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewTransfer builds an approved transfer ready for persistence.
func NewTransfer(senderID, receiverID uuid.UUID, amount decimal.Decimal, idempotencyKey string) *Transfer {
	return &Transfer{
		ID:             uuid.New(),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
		Status:         TransferApproved,
	}
}
