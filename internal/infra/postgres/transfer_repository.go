package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// TransferRepository implements gateway.TransferRepository on pgx/v5. The
// transfers table carries a unique constraint on idempotency_key and a
// composite index on (status, created_at DESC) for the recent-by-status
// listing.
type TransferRepository struct {
	db querier
}

func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{db: pool}
}

func (r *TransferRepository) Create(ctx context.Context, transfer *domain.Transfer) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO transfers (id, sender_id, receiver_id, amount, idempotency_key, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		transfer.ID, transfer.SenderID, transfer.ReceiverID,
		transfer.Amount, transfer.IdempotencyKey, string(transfer.Status),
	).Scan(&transfer.CreatedAt, &transfer.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The loser of a racing duplicate pair lands here.
			return domain.ErrDuplicateTransfer
		}
		return fmt.Errorf("inserting transfer: %w", err)
	}
	return nil
}

func (r *TransferRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	var transfer domain.Transfer
	var status string
	err := r.db.QueryRow(ctx,
		`SELECT id, sender_id, receiver_id, amount, idempotency_key, status, created_at, updated_at
		 FROM transfers WHERE idempotency_key = $1`, key,
	).Scan(&transfer.ID, &transfer.SenderID, &transfer.ReceiverID, &transfer.Amount,
		&transfer.IdempotencyKey, &status, &transfer.CreatedAt, &transfer.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying transfer by idempotency key: %w", err)
	}
	transfer.Status = domain.TransferStatus(status)
	return &transfer, nil
}

func (r *TransferRepository) ListByStatus(ctx context.Context, status domain.TransferStatus, limit int) ([]domain.Transfer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, sender_id, receiver_id, amount, idempotency_key, status, created_at, updated_at
		 FROM transfers WHERE status = $1
		 ORDER BY created_at DESC LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		var transfer domain.Transfer
		var rowStatus string
		if err := rows.Scan(&transfer.ID, &transfer.SenderID, &transfer.ReceiverID, &transfer.Amount,
			&transfer.IdempotencyKey, &rowStatus, &transfer.CreatedAt, &transfer.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfer.Status = domain.TransferStatus(rowStatus)
		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}

func (r *TransferRepository) WithTx(tx gateway.TransactionObject) gateway.TransferRepository {
	pgTx, ok := tx.(pgx.Tx)
	if !ok {
		return r
	}
	return &TransferRepository{db: pgTx}
}
