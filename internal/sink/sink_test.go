package sink

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/parkpulse/parking-iot/internal/models"
)

func TestNopSink(t *testing.T) {
	var s Nop
	ctx := context.Background()

	if err := s.PublishEvents(ctx, []models.Event{{EventID: "e1"}}); err != nil {
		t.Errorf("PublishEvents returned %v", err)
	}
	if err := s.PublishSessions(ctx, []models.Session{{SessionID: "s1"}}); err != nil {
		t.Errorf("PublishSessions returned %v", err)
	}
	if err := s.Flush(ctx); err != nil {
		t.Errorf("Flush returned %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Errorf("Close returned %v", err)
	}
}

// Integration test (requires running MongoDB)
func TestMongoSink_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewMongoSink(ctx, uri, "parking_iot_test")
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	defer s.Close(context.Background())

	now := time.Now()
	events := []models.Event{{
		EventID:    "test-event",
		EventType:  models.EventCarIn,
		SessionID:  "test-session",
		FacilityID: 1,
		EventTime:  now,
	}}
	if err := s.PublishEvents(ctx, events); err != nil {
		t.Errorf("expected event insert to succeed, got error: %v", err)
	}

	sessions := []models.Session{{
		SessionID:  "test-session",
		FacilityID: 1,
		InTime:     now,
		Status:     models.SessionCompleted,
	}}
	if err := s.PublishSessions(ctx, sessions); err != nil {
		t.Errorf("expected session insert to succeed, got error: %v", err)
	}
}

// Integration test (requires running MQTT broker)
func TestMQTTSink_Integration(t *testing.T) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		t.Skip("MQTT_BROKER not set, skipping integration test")
		return
	}

	s, err := NewMQTTSink(broker, "parking-iot-test")
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	defer s.Close(context.Background())

	ctx := context.Background()
	events := []models.Event{{EventID: "test-event", EventType: models.EventCarIn}}
	if err := s.PublishEvents(ctx, events); err != nil {
		t.Errorf("expected publish to succeed, got error: %v", err)
	}
}
