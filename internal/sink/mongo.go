package sink

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parkpulse/parking-iot/internal/models"
)

const (
	eventsCollection   = "parking_events"
	sessionsCollection = "parking_sessions"
)

// MongoSink writes event and session batches into the analytics warehouse.
// Each accepted record is stamped with a monotonically increasing offset and
// an ingestion timestamp.
type MongoSink struct {
	client   *mongo.Client
	events   *mongo.Collection
	sessions *mongo.Collection
	offset   atomic.Int64
}

// NewMongoSink connects to MongoDB and verifies the connection with a ping.
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	db := client.Database(database)
	return &MongoSink{
		client:   client,
		events:   db.Collection(eventsCollection),
		sessions: db.Collection(sessionsCollection),
	}, nil
}

type eventRow struct {
	models.Event `bson:",inline"`
	IngestedAt   time.Time `bson:"ingested_at"`
	OffsetID     int64     `bson:"offset_id"`
}

type sessionRow struct {
	models.Session `bson:",inline"`
	IngestedAt     time.Time `bson:"ingested_at"`
	OffsetID       int64     `bson:"offset_id"`
}

// PublishEvents inserts a batch of events.
func (m *MongoSink) PublishEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		docs = append(docs, eventRow{Event: e, IngestedAt: now, OffsetID: m.offset.Add(1)})
	}
	if _, err := m.events.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	log.WithField("count", len(docs)).Debug("Inserted event batch")
	return nil
}

// PublishSessions inserts a batch of completed sessions.
func (m *MongoSink) PublishSessions(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		docs = append(docs, sessionRow{Session: s, IngestedAt: now, OffsetID: m.offset.Add(1)})
	}
	if _, err := m.sessions.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert sessions: %w", err)
	}
	log.WithField("count", len(docs)).Debug("Inserted session batch")
	return nil
}

// Flush is a no-op: InsertMany is already durable on return.
func (m *MongoSink) Flush(context.Context) error { return nil }

// Close disconnects the client.
func (m *MongoSink) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
