package authorizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	breaker := NewCircuitBreaker(5)

	for i := 0; i < 4; i++ {
		breaker.RecordFailure()
		assert.True(t, breaker.Allow(), "breaker must stay closed below the threshold")
	}

	breaker.RecordFailure()
	assert.False(t, breaker.Allow())
	assert.True(t, breaker.Open())
}

func TestCircuitBreakerSuccessResetsCountOnly(t *testing.T) {
	breaker := NewCircuitBreaker(5)

	breaker.RecordFailure()
	breaker.RecordFailure()
	breaker.RecordSuccess()
	assert.Zero(t, breaker.Failures())
	assert.True(t, breaker.Allow())

	// Once tripped, a success never closes the breaker again.
	for i := 0; i < 5; i++ {
		breaker.RecordFailure()
	}
	assert.False(t, breaker.Allow())
	breaker.RecordSuccess()
	assert.False(t, breaker.Allow())
	assert.True(t, breaker.Open())
}

func TestCircuitBreakerConcurrentFailures(t *testing.T) {
	breaker := NewCircuitBreaker(5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			breaker.RecordFailure()
		}()
	}
	wg.Wait()

	assert.False(t, breaker.Allow())
	assert.Equal(t, 20, breaker.Failures())
}
