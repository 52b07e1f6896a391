package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

// NotificationExchange and NotificationRoutingKey address the queue that
// feeds the notification worker.
const (
	NotificationExchange   = "payments"
	NotificationRoutingKey = "transfer.approved"
)

// ExecuteTransferInput is the parsed, type-checked request. The HTTP layer
// guarantees a positive amount, sender != receiver and a non-empty key.
type ExecuteTransferInput struct {
	SenderID       uuid.UUID
	ReceiverID     uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string
}

// ExecuteTransferUseCase runs one transfer end to end with an all-or-nothing
// outcome: validation, external authorization, atomic balance mutation with
// audit events, and asynchronous notification dispatch.
type ExecuteTransferUseCase struct {
	accounts   gateway.AccountRepository
	transfers  gateway.TransferRepository
	events     gateway.EventStore
	authorizer gateway.Authorizer
	txManager  gateway.TransactionManager
	publisher  gateway.NotificationPublisher
}

func NewExecuteTransfer(
	accounts gateway.AccountRepository,
	transfers gateway.TransferRepository,
	events gateway.EventStore,
	authorizer gateway.Authorizer,
	txManager gateway.TransactionManager,
	publisher gateway.NotificationPublisher,
) *ExecuteTransferUseCase {
	return &ExecuteTransferUseCase{
		accounts:   accounts,
		transfers:  transfers,
		events:     events,
		authorizer: authorizer,
		txManager:  txManager,
		publisher:  publisher,
	}
}

// Execute validates and performs the transfer. Validations run in a fixed
// order so error precedence is deterministic: sender existence, sender role,
// advisory funds, receiver existence, receiver role, idempotency, external
// authorization. Every failure aborts before any side effect of later steps.
func (u *ExecuteTransferUseCase) Execute(ctx context.Context, input ExecuteTransferInput) (*domain.Transfer, error) {
	sender, err := u.accounts.FindByID(ctx, input.SenderID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrSenderNotFound
		}
		return nil, fmt.Errorf("resolving sender %s: %w", input.SenderID, err)
	}
	if !sender.CanSend() {
		return nil, domain.ErrSenderIneligible
	}
	if !sender.HasSufficientFunds(input.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	receiver, err := u.accounts.FindByID(ctx, input.ReceiverID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrReceiverNotFound
		}
		return nil, fmt.Errorf("resolving receiver %s: %w", input.ReceiverID, err)
	}
	if !receiver.CanReceive() {
		return nil, domain.ErrReceiverIneligible
	}

	// Advisory duplicate check; the unique constraint inside the unit of
	// work is the authority when two identical requests race.
	existing, err := u.transfers.FindByIdempotencyKey(ctx, input.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup for key %q: %w", input.IdempotencyKey, err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateTransfer
	}

	if !u.authorizer.Authorize(ctx) {
		return nil, domain.ErrNotAuthorized
	}

	transfer := domain.NewTransfer(input.SenderID, input.ReceiverID, input.Amount, input.IdempotencyKey)

	// Initiated event goes out before the mutation so the audit trail exists
	// even if the process dies mid-unit.
	if err := u.events.Append(ctx, domain.NewTransferInitiated(transfer)); err != nil {
		return nil, fmt.Errorf("appending transfer.initiated event: %w", err)
	}

	err = u.txManager.Run(ctx, func(txCtx context.Context) error {
		txObject := txCtx.Value(gateway.TransactionKey)
		if txObject == nil {
			return fmt.Errorf("transaction missing from context")
		}

		accountsTx := u.accounts.WithTx(txObject)
		transfersTx := u.transfers.WithTx(txObject)

		// Lock both rows in ascending ID order so two opposite transfers
		// racing on the same pair cannot deadlock.
		firstID, secondID := input.SenderID, input.ReceiverID
		if firstID.String() > secondID.String() {
			firstID, secondID = secondID, firstID
		}

		first, err := accountsTx.FindByIDForUpdate(txCtx, firstID)
		if err != nil {
			return fmt.Errorf("locking account %s: %w", firstID, err)
		}
		second, err := accountsTx.FindByIDForUpdate(txCtx, secondID)
		if err != nil {
			return fmt.Errorf("locking account %s: %w", secondID, err)
		}

		lockedSender, lockedReceiver := first, second
		if lockedSender.ID != input.SenderID {
			lockedSender, lockedReceiver = second, first
		}

		// Authoritative re-check against the locked row. The advisory check
		// above may have raced with a concurrent debit.
		if !lockedSender.HasSufficientFunds(input.Amount) {
			return domain.ErrInsufficientFunds
		}

		// Insert the transfer row before anything else: a racing duplicate
		// trips the unique constraint here, before any balance write and
		// before the event appends, which live outside this transaction and
		// would survive the rollback.
		if err := transfersTx.Create(txCtx, transfer); err != nil {
			return fmt.Errorf("persisting transfer: %w", err)
		}

		if err := accountsTx.Debit(txCtx, input.SenderID, input.Amount); err != nil {
			return fmt.Errorf("debiting sender %s: %w", input.SenderID, err)
		}
		if err := accountsTx.Credit(txCtx, input.ReceiverID, input.Amount); err != nil {
			return fmt.Errorf("crediting receiver %s: %w", input.ReceiverID, err)
		}

		debitEvent := domain.NewBalanceUpdated(
			input.IdempotencyKey, lockedSender.ID,
			lockedSender.Balance, lockedSender.Balance.Sub(input.Amount), input.Amount.Neg(),
		)
		creditEvent := domain.NewBalanceUpdated(
			input.IdempotencyKey, lockedReceiver.ID,
			lockedReceiver.Balance, lockedReceiver.Balance.Add(input.Amount), input.Amount,
		)
		// The audit trail is part of the financial record: an append failure
		// here rolls back the debit and credit.
		if err := u.events.Append(txCtx, debitEvent); err != nil {
			return fmt.Errorf("appending debit event: %w", err)
		}
		if err := u.events.Append(txCtx, creditEvent); err != nil {
			return fmt.Errorf("appending credit event: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	u.dispatchNotification(ctx, transfer)

	return transfer, nil
}

// dispatchNotification hands the receipt notice to the queue. Failures are
// logged and swallowed: notification delivery must never affect the
// transfer's outcome.
func (u *ExecuteTransferUseCase) dispatchNotification(ctx context.Context, transfer *domain.Transfer) {
	if u.publisher == nil {
		return
	}

	job := map[string]any{
		"transfer_id": transfer.ID.String(),
		"receiver_id": transfer.ReceiverID.String(),
		"amount":      transfer.Amount.String(),
		"message":     fmt.Sprintf("You received a transfer of %s", transfer.Amount.StringFixed(2)),
	}
	if err := u.publisher.Publish(ctx, NotificationExchange, NotificationRoutingKey, job); err != nil {
		log.Error().Err(err).
			Str("transfer_id", transfer.ID.String()).
			Msg("failed to publish notification job")
	}
}
