package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType is the closed set of domain event tags.
type EventType string

const (
	EventTransferInitiated  EventType = "transfer.initiated"
	EventBalanceUpdated     EventType = "balance.updated"
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is one immutable entry of the audit trail. Events are appended and
// queried, never updated or deleted. CorrelationKey ties the event back to
// the owning transfer (its idempotency key, or "notification-{transferID}"
// for notification outcomes). AccountID is set only for events that concern
// a single account.
type Event struct {
	Type           EventType
	CorrelationKey string
	AccountID      uuid.UUID
	Payload        map[string]any
	OccurredAt     time.Time
}

// NewTransferInitiated records that a transfer passed validation and
// authorization and is about to mutate balances.
func NewTransferInitiated(t *Transfer) *Event {
	return &Event{
		Type:           EventTransferInitiated,
		CorrelationKey: t.IdempotencyKey,
		Payload: map[string]any{
			"sender_id":   t.SenderID.String(),
			"receiver_id": t.ReceiverID.String(),
			"amount":      t.Amount.String(),
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewBalanceUpdated records one side of the double entry: the old and new
// balance of a single account plus the signed delta applied to it.
func NewBalanceUpdated(correlationKey string, accountID uuid.UUID, oldBalance, newBalance, delta decimal.Decimal) *Event {
	return &Event{
		Type:           EventBalanceUpdated,
		CorrelationKey: correlationKey,
		AccountID:      accountID,
		Payload: map[string]any{
			"account_id":  accountID.String(),
			"old_balance": oldBalance.String(),
			"new_balance": newBalance.String(),
			"delta":       delta.String(),
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewNotificationOutcome records the single delivery attempt for a transfer
// notification. sent=false yields a notification.failed event carrying the
// delivery error.
func NewNotificationOutcome(transferID uuid.UUID, receiverID uuid.UUID, sent bool, deliveryErr string) *Event {
	typ := EventNotificationSent
	payload := map[string]any{
		"transfer_id": transferID.String(),
		"receiver_id": receiverID.String(),
	}
	if !sent {
		typ = EventNotificationFailed
		payload["error"] = deliveryErr
	}
	return &Event{
		Type:           typ,
		CorrelationKey: "notification-" + transferID.String(),
		AccountID:      receiverID,
		Payload:        payload,
		OccurredAt:     time.Now().UTC(),
	}
}
