package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
)

const eventsCollection = "events"

// eventDocument is the persisted shape. AccountID is a top-level field so
// the (type, account_id) index can serve balance-history queries.
type eventDocument struct {
	Type           string    `bson:"type"`
	CorrelationKey string    `bson:"correlation_key"`
	AccountID      string    `bson:"account_id,omitempty"`
	Payload        bson.M    `bson:"payload"`
	OccurredAt     time.Time `bson:"occurred_at"`
}

// EventStore implements gateway.EventStore on a MongoDB collection. Only
// inserts and reads; documents are never updated or deleted.
type EventStore struct {
	collection *mongo.Collection
}

func NewEventStore(client *mongo.Client, dbName string) *EventStore {
	return &EventStore{collection: client.Database(dbName).Collection(eventsCollection)}
}

// EnsureIndexes creates the correlation-key and (type, account_id) indexes.
// Safe to call on every startup; Mongo treats existing indexes as no-ops.
func (s *EventStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "correlation_key", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "account_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating event indexes: %w", err)
	}
	return nil
}

func (s *EventStore) Append(ctx context.Context, event *domain.Event) error {
	doc := eventDocument{
		Type:           string(event.Type),
		CorrelationKey: event.CorrelationKey,
		Payload:        bson.M(event.Payload),
		OccurredAt:     event.OccurredAt,
	}
	if event.AccountID != uuid.Nil {
		doc.AccountID = event.AccountID.String()
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("appending %s event: %w", event.Type, err)
	}
	return nil
}

func (s *EventStore) ByCorrelationKey(ctx context.Context, key string) ([]domain.Event, error) {
	return s.find(ctx, bson.M{"correlation_key": key})
}

func (s *EventStore) ByTypeAndAccount(ctx context.Context, eventType domain.EventType, accountID uuid.UUID) ([]domain.Event, error) {
	return s.find(ctx, bson.M{"type": string(eventType), "account_id": accountID.String()})
}

func (s *EventStore) find(ctx context.Context, filter bson.M) ([]domain.Event, error) {
	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}

	events := make([]domain.Event, 0, len(docs))
	for _, doc := range docs {
		event := domain.Event{
			Type:           domain.EventType(doc.Type),
			CorrelationKey: doc.CorrelationKey,
			Payload:        map[string]any(doc.Payload),
			OccurredAt:     doc.OccurredAt,
		}
		if doc.AccountID != "" {
			if id, err := uuid.Parse(doc.AccountID); err == nil {
				event.AccountID = id
			}
		}
		events = append(events, event)
	}
	return events, nil
}
