package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

// AccountRepository implements gateway.AccountRepository on pgx/v5.
type AccountRepository struct {
	db querier
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: pool}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (id, role, balance)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		account.ID, string(account.Role), account.Balance,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx,
		`SELECT id, role, balance, created_at, updated_at
		 FROM accounts WHERE id = $1`, id))
}

// FindByIDForUpdate locks the row until the enclosing transaction ends.
func (r *AccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.scanAccount(r.db.QueryRow(ctx,
		`SELECT id, role, balance, created_at, updated_at
		 FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

// Debit subtracts amount only when the stored balance covers it; the
// condition in the UPDATE is what makes overdraft impossible regardless of
// what the caller checked beforehand.
func (r *AccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = now()
		 WHERE id = $2 AND balance >= $1`,
		amount, id)
	if err != nil {
		return fmt.Errorf("debiting account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

func (r *AccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = now()
		 WHERE id = $2`,
		amount, id)
	if err != nil {
		return fmt.Errorf("crediting account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) WithTx(tx gateway.TransactionObject) gateway.AccountRepository {
	pgTx, ok := tx.(pgx.Tx)
	if !ok {
		return r
	}
	return &AccountRepository{db: pgTx}
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var role string
	err := row.Scan(&account.ID, &role, &account.Balance, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	account.Role = domain.Role(role)
	return &account, nil
}
