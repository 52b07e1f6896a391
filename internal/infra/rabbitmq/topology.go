package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// Exchange carries all payment events as a topic exchange.
	Exchange = "payments"
	// NotificationQueue is the durable queue feeding the notification worker.
	NotificationQueue = "notifications"
	// NotificationBinding routes approved transfers into the queue.
	NotificationBinding = "transfer.#"
)

// DeclareTopology sets up the exchange, queue and binding. Declarations are
// idempotent, so both the API and the worker call this on startup and
// whichever connects first wins.
func DeclareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring exchange: %w", err)
	}

	queue, err := ch.QueueDeclare(
		NotificationQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, NotificationBinding, Exchange, false, nil); err != nil {
		return fmt.Errorf("binding queue: %w", err)
	}
	return nil
}
