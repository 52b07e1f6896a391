package authorizer

import "sync"

// DefaultFailureThreshold is how many accumulated transport failures trip
// the breaker.
const DefaultFailureThreshold = 5

// CircuitBreaker tracks authorizer transport failures shared across all
// concurrent authorization calls in the process. Once tripped it stays open
// for the process lifetime: there is no half-open probe, a restart clears
// it. A success resets the failure count but never closes a tripped breaker.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  int
	open      bool
	threshold int
}

func NewCircuitBreaker(threshold int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &CircuitBreaker{threshold: threshold}
}

// Allow reports whether a call may go out. False means fail fast without
// touching the network.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.open
}

// RecordFailure counts one exhausted call against the breaker and trips it
// at the threshold.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.open = true
	}
}

// RecordSuccess clears the failure count. A tripped breaker stays open.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Open reports whether the breaker has tripped.
func (b *CircuitBreaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Failures returns the current failure count.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
