package authorizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(url string, breaker *CircuitBreaker) *Client {
	return NewClient(url, breaker,
		WithAttemptTimeout(200*time.Millisecond),
		WithBackoffBase(time.Millisecond),
	)
}

func TestAuthorizeApproved(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"authorization":true}}`))
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	assert.True(t, client.Authorize(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Zero(t, breaker.Failures())
}

func TestAuthorizeDeniedDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"fail","data":{"authorization":false}}`))
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	assert.False(t, client.Authorize(context.Background()))
	// A well-formed negative decision is terminal: one call, no breaker
	// failure.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Zero(t, breaker.Failures())
}

func TestAuthorizeSuccessStatusWithFalseFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"authorization":false}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, NewCircuitBreaker(5))
	assert.False(t, client.Authorize(context.Background()))
}

func TestAuthorizeMalformedBodyIsDenial(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	assert.False(t, client.Authorize(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Zero(t, breaker.Failures())
}

func TestAuthorizeTransportFailureRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // every call now fails at the transport level

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	assert.False(t, client.Authorize(context.Background()))
	// The exhausted call counts once against the breaker.
	assert.Equal(t, 1, breaker.Failures())
}

func TestAuthorizeTimeoutRetriesThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	assert.False(t, client.Authorize(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, breaker.Failures())
}

func TestAuthorizeBreakerTripStopsNetworkCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	for i := 0; i < 5; i++ {
		assert.False(t, client.Authorize(context.Background()))
	}
	assert.True(t, breaker.Open())

	// With the breaker open the client must fail fast without touching the
	// network: point it at a server that would approve.
	approving := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("network call made while breaker open")
	}))
	defer approving.Close()
	client.url = approving.URL

	assert.False(t, client.Authorize(context.Background()))
}

func TestAuthorizeSuccessResetsFailureCount(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			// Hijack and drop the connection to force a transport error.
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.Write([]byte(`{"status":"success","data":{"authorization":true}}`))
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(5)
	client := newTestClient(server.URL, breaker)

	assert.False(t, client.Authorize(context.Background()))
	assert.Equal(t, 1, breaker.Failures())

	fail.Store(false)
	assert.True(t, client.Authorize(context.Background()))
	assert.Zero(t, breaker.Failures())
}
