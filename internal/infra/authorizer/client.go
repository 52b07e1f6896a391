package authorizer

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultAttempts bounds how many times one Authorize call touches the
	// network.
	DefaultAttempts = 3
	// DefaultAttemptTimeout bounds each individual attempt.
	DefaultAttemptTimeout = 2 * time.Second
	// DefaultBackoffBase is the unit of the 2^(attempt-1) backoff between
	// transport failures.
	DefaultBackoffBase = time.Second
)

var breakerOpenGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "payment_authorizer_breaker_open",
	Help: "1 when the authorizer circuit breaker has tripped",
})

// authorizationResponse is the decision service's success shape. Anything
// that decodes but does not carry status=success plus a true flag is a
// normal negative outcome, not a protocol error.
type authorizationResponse struct {
	Status string `json:"status"`
	Data   struct {
		Authorization bool `json:"authorization"`
	} `json:"data"`
}

// Client calls the external authorization decision service behind the
// circuit breaker, with bounded retry on transport failures only.
type Client struct {
	http           *http.Client
	url            string
	breaker        *CircuitBreaker
	attempts       int
	attemptTimeout time.Duration
	backoffBase    time.Duration
}

// Option tweaks client knobs; tests shrink the timeout and backoff.
type Option func(*Client)

func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.attemptTimeout = d }
}

func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

func NewClient(url string, breaker *CircuitBreaker, opts ...Option) *Client {
	c := &Client{
		http:           &http.Client{},
		url:            url,
		breaker:        breaker,
		attempts:       DefaultAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		backoffBase:    DefaultBackoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authorize asks the external service for a yes/no decision. It never
// returns an error: a denial, an unreachable service and an open breaker
// all come back as false.
func (c *Client) Authorize(ctx context.Context) bool {
	if !c.breaker.Allow() {
		log.Debug().Msg("authorizer breaker open, failing fast")
		return false
	}

	for attempt := 1; attempt <= c.attempts; attempt++ {
		authorized, retryable := c.attempt(ctx)
		if authorized {
			c.breaker.RecordSuccess()
			return true
		}
		if !retryable {
			// Well-formed negative decision: terminal, not a breaker failure.
			return false
		}
		if attempt < c.attempts {
			backoff := c.backoffBase << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				attempt = c.attempts
			}
		}
	}

	c.breaker.RecordFailure()
	if c.breaker.Open() {
		breakerOpenGauge.Set(1)
		log.Warn().Int("failures", c.breaker.Failures()).Msg("authorizer breaker tripped")
	}
	return false
}

// attempt performs one network call. retryable is true only for transport
// failures and timeouts; any HTTP response, whatever its status code or
// body, is a final decision.
func (c *Client) attempt(ctx context.Context) (authorized, retryable bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.url, nil)
	if err != nil {
		log.Error().Err(err).Msg("building authorizer request")
		return false, false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("authorizer call failed")
		return false, true
	}
	defer resp.Body.Close()

	var decision authorizationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		// An unexpected shape is "not authorized", not a protocol error.
		return false, false
	}
	return decision.Status == "success" && decision.Data.Authorization, false
}
