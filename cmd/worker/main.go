package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/LuizEscobarC/simplified-payment-api/internal/config"
	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/mongodb"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/notifier"
	"github.com/LuizEscobarC/simplified-payment-api/internal/infra/rabbitmq"
)

// notificationJob is the queue message published by the API after a transfer
// is approved.
type notificationJob struct {
	TransferID string `json:"transfer_id"`
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
	Message    string `json:"message"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment")
	}
	cfg := config.Load()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("could not create MongoDB client")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnecting MongoDB")
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("MongoDB is not responding")
	}
	cancel()
	log.Info().Msg("connected to MongoDB")

	eventStore := mongodb.NewEventStore(mongoClient, cfg.MongoDatabase)
	notifierClient := notifier.NewClient(cfg.NotifierURL)

	conn, err := amqp.DialConfig(cfg.RabbitURL, amqp.Config{
		Properties: amqp.Table{"connection_name": "NotificationWorker_Consumer"},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to RabbitMQ")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("closing RabbitMQ connection")
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("could not open channel")
	}
	defer func() {
		if err := ch.Close(); err != nil {
			log.Error().Err(err).Msg("closing RabbitMQ channel")
		}
	}()

	// One unacked message at a time; delivery order stays predictable and a
	// slow notifier cannot fill the prefetch buffer.
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatal().Err(err).Msg("could not configure QoS")
	}

	if err := rabbitmq.DeclareTopology(ch); err != nil {
		log.Fatal().Err(err).Msg("could not declare topology")
	}

	msgs, err := ch.Consume(
		rabbitmq.NotificationQueue,
		"notification_worker",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("could not register consumer")
	}

	notifyClose := make(chan *amqp.Error)
	ch.NotifyClose(notifyClose)

	log.Info().Str("queue", rabbitmq.NotificationQueue).Msg("worker started, waiting for messages")

	go func() {
		for {
			select {
			case err := <-notifyClose:
				if err != nil {
					log.Error().Err(err).Msg("RabbitMQ channel closed")
					os.Exit(1)
				}
				return
			case delivery, ok := <-msgs:
				if !ok {
					log.Error().Msg("message channel closed")
					os.Exit(1)
				}
				handleDelivery(delivery, notifierClient, eventStore)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down worker")
}

type receiptNotifier interface {
	Notify(ctx context.Context, transferID uuid.UUID, message string) error
}

type outcomeRecorder interface {
	Append(ctx context.Context, event *domain.Event) error
}

// handleDelivery performs the single delivery attempt and records the
// outcome event. The message is acked either way: the outcome is in the
// event log, redelivering would double-notify.
func handleDelivery(delivery amqp.Delivery, client receiptNotifier, events outcomeRecorder) {
	var job notificationJob
	if err := json.Unmarshal(delivery.Body, &job); err != nil {
		log.Error().Err(err).Msg("undecodable notification job")
		if err := delivery.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("nacking undecodable job")
		}
		return
	}

	transferID, err := uuid.Parse(job.TransferID)
	if err != nil {
		log.Error().Err(err).Str("transfer_id", job.TransferID).Msg("invalid transfer id in job")
		if err := delivery.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("nacking invalid job")
		}
		return
	}
	// A bad receiver id does not block delivery: the notice is addressed by
	// transfer id, the outcome event just loses its account reference.
	receiverID, err := uuid.Parse(job.ReceiverID)
	if err != nil {
		log.Error().Err(err).Str("receiver_id", job.ReceiverID).Msg("invalid receiver id in job")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deliveryErr := client.Notify(ctx, transferID, job.Message)
	outcome := domain.NewNotificationOutcome(transferID, receiverID, deliveryErr == nil, errString(deliveryErr))
	if err := events.Append(ctx, outcome); err != nil {
		// The attempt stays single-shot even when the outcome event is lost:
		// requeueing would notify the receiver twice.
		log.Error().Err(err).Str("transfer_id", job.TransferID).Msg("could not record notification outcome")
	}

	if deliveryErr != nil {
		log.Warn().Err(deliveryErr).Str("transfer_id", job.TransferID).Msg("notification delivery failed")
	} else {
		log.Info().Str("transfer_id", job.TransferID).Msg("notification delivered")
	}

	if err := delivery.Ack(false); err != nil {
		log.Error().Err(err).Msg("acking delivery")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
