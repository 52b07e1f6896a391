package gateway

import "context"

// NotificationPublisher hands a notification job to the queue. Fire and
// forget from the orchestrator's perspective: a publish failure is logged by
// the caller, never surfaced to the transfer's client.
type NotificationPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body any) error
}
