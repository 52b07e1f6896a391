package gateway

import "context"

// Authorizer gates every transfer on an external yes/no decision. It never
// returns an error: denial, unreachability and an open circuit breaker all
// degrade to false so the orchestrator's handling stays uniform.
type Authorizer interface {
	Authorize(ctx context.Context) bool
}
