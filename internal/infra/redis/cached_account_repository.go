package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

// DefaultTTL bounds how stale a cached read may get when an invalidation is
// missed. Writes delete the entry before returning, so a read after a write
// through this decorator is never stale.
const DefaultTTL = 30 * time.Second

// CachedAccountRepository wraps an AccountRepository with a read-through,
// invalidate-on-write Redis cache. The cache is an optimization only: every
// cache error falls through to the inner repository, and locking reads
// always bypass it.
type CachedAccountRepository struct {
	inner  gateway.AccountRepository
	client Commands
	ttl    time.Duration
}

func NewCachedAccountRepository(inner gateway.AccountRepository, client Commands, ttl time.Duration) *CachedAccountRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedAccountRepository{inner: inner, client: client, ttl: ttl}
}

func accountKey(id uuid.UUID) string {
	return "account:" + id.String()
}

func (r *CachedAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.invalidate(ctx, accountKey(account.ID))
	return r.inner.Create(ctx, account)
}

func (r *CachedAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	key := accountKey(id)
	val, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var cached cachedAccount
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			if account, err := cached.toDomain(); err == nil {
				return account, nil
			}
		}
		// Undecodable entry: drop it and fall through.
		r.invalidate(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("account cache read failed, falling through")
	}

	account, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, newCachedAccount(account))
	return account, nil
}

// FindByIDForUpdate is a locking read; it always hits the authoritative
// store.
func (r *CachedAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.inner.FindByIDForUpdate(ctx, id)
}

func (r *CachedAccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	r.invalidate(ctx, accountKey(id))
	return r.inner.Debit(ctx, id, amount)
}

func (r *CachedAccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	r.invalidate(ctx, accountKey(id))
	return r.inner.Credit(ctx, id, amount)
}

// WithTx keeps the decorator in place so writes made inside the unit of work
// still invalidate their cache entries, while reads delegate to the
// transaction-bound repository.
func (r *CachedAccountRepository) WithTx(tx gateway.TransactionObject) gateway.AccountRepository {
	return &CachedAccountRepository{
		inner:  r.inner.WithTx(tx),
		client: r.client,
		ttl:    r.ttl,
	}
}

func (r *CachedAccountRepository) store(ctx context.Context, key string, value any) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, bytes, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("account cache write failed")
	}
}

func (r *CachedAccountRepository) invalidate(ctx context.Context, key string) {
	registerInvalidation(ctx, key)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("account cache invalidation failed")
	}
}

// cachedAccount is the JSON shape stored in Redis. Balance travels as a
// string to keep the decimal exact.
type cachedAccount struct {
	ID        uuid.UUID   `json:"id"`
	Role      domain.Role `json:"role"`
	Balance   string      `json:"balance"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newCachedAccount(a *domain.Account) cachedAccount {
	return cachedAccount{
		ID:        a.ID,
		Role:      a.Role,
		Balance:   a.Balance.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (c cachedAccount) toDomain() (*domain.Account, error) {
	balance, err := decimal.NewFromString(c.Balance)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:        c.ID,
		Role:      c.Role,
		Balance:   balance,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
