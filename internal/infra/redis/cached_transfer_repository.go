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

// CachedTransferRepository wraps a TransferRepository with a read-through,
// invalidate-on-write Redis cache keyed by idempotency key. Listings are
// passed through uncached.
type CachedTransferRepository struct {
	inner  gateway.TransferRepository
	client Commands
	ttl    time.Duration
}

func NewCachedTransferRepository(inner gateway.TransferRepository, client Commands, ttl time.Duration) *CachedTransferRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedTransferRepository{inner: inner, client: client, ttl: ttl}
}

func transferKey(idempotencyKey string) string {
	return "transfer:key:" + idempotencyKey
}

func (r *CachedTransferRepository) Create(ctx context.Context, transfer *domain.Transfer) error {
	r.invalidate(ctx, transferKey(transfer.IdempotencyKey))
	return r.inner.Create(ctx, transfer)
}

func (r *CachedTransferRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	cacheKey := transferKey(key)
	val, err := r.client.Get(ctx, cacheKey).Result()
	if err == nil {
		var cached cachedTransfer
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			if transfer, err := cached.toDomain(); err == nil {
				return transfer, nil
			}
		}
		r.invalidate(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", cacheKey).Msg("transfer cache read failed, falling through")
	}

	transfer, err := r.inner.FindByIdempotencyKey(ctx, key)
	if err != nil || transfer == nil {
		// Absence is never cached: the next occurrence of the key may be the
		// insert itself.
		return transfer, err
	}
	r.store(ctx, cacheKey, newCachedTransfer(transfer))
	return transfer, nil
}

func (r *CachedTransferRepository) ListByStatus(ctx context.Context, status domain.TransferStatus, limit int) ([]domain.Transfer, error) {
	return r.inner.ListByStatus(ctx, status, limit)
}

func (r *CachedTransferRepository) WithTx(tx gateway.TransactionObject) gateway.TransferRepository {
	return &CachedTransferRepository{
		inner:  r.inner.WithTx(tx),
		client: r.client,
		ttl:    r.ttl,
	}
}

func (r *CachedTransferRepository) store(ctx context.Context, key string, value any) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, bytes, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("transfer cache write failed")
	}
}

func (r *CachedTransferRepository) invalidate(ctx context.Context, key string) {
	registerInvalidation(ctx, key)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("transfer cache invalidation failed")
	}
}

type cachedTransfer struct {
	ID             uuid.UUID             `json:"id"`
	SenderID       uuid.UUID             `json:"sender_id"`
	ReceiverID     uuid.UUID             `json:"receiver_id"`
	Amount         string                `json:"amount"`
	IdempotencyKey string                `json:"idempotency_key"`
	Status         domain.TransferStatus `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func newCachedTransfer(t *domain.Transfer) cachedTransfer {
	return cachedTransfer{
		ID:             t.ID,
		SenderID:       t.SenderID,
		ReceiverID:     t.ReceiverID,
		Amount:         t.Amount.String(),
		IdempotencyKey: t.IdempotencyKey,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (c cachedTransfer) toDomain() (*domain.Transfer, error) {
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.Transfer{
		ID:             c.ID,
		SenderID:       c.SenderID,
		ReceiverID:     c.ReceiverID,
		Amount:         amount,
		IdempotencyKey: c.IdempotencyKey,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}, nil
}
