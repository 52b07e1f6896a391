package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

// Commands is the slice of go-redis the cache decorators use. *redis.Client
// satisfies it.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type collectorKeyType string

const collectorKey collectorKeyType = "cache-invalidations"

// collector gathers the cache keys invalidated inside a unit of work so they
// can be deleted once more after the transaction commits.
type collector struct {
	mu   sync.Mutex
	keys []string
}

func (c *collector) add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.keys {
		if existing == key {
			return
		}
	}
	c.keys = append(c.keys, key)
}

func (c *collector) drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.keys
	c.keys = nil
	return keys
}

// registerInvalidation notes key for post-commit deletion. A no-op outside a
// unit of work run through TxManager.
func registerInvalidation(ctx context.Context, key string) {
	if c, ok := ctx.Value(collectorKey).(*collector); ok {
		c.add(key)
	}
}

// TxManager decorates a TransactionManager for cache coherence: writes made
// through the cache decorators invalidate their entries immediately, but a
// concurrent read between that invalidation and the commit can re-populate
// the pre-commit value. Deleting the collected keys again after the commit
// closes that window, so a read after a committed write is never stale.
type TxManager struct {
	inner  gateway.TransactionManager
	client Commands
}

func NewTxManager(inner gateway.TransactionManager, client Commands) *TxManager {
	return &TxManager{inner: inner, client: client}
}

func (m *TxManager) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	c := &collector{}
	if err := m.inner.Run(context.WithValue(ctx, collectorKey, c), fn); err != nil {
		return err
	}
	for _, key := range c.drain() {
		if err := m.client.Del(ctx, key).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("post-commit cache invalidation failed")
		}
	}
	return nil
}
