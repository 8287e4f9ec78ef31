package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/parkpulse/parking-iot/internal/models"
)

const (
	eventsTopic   = "parking/events"
	sessionsTopic = "parking/sessions"

	publishTimeout = 5 * time.Second
)

// MQTTSink publishes each record as a JSON message for live consumers.
// Records are stamped with a per-sink offset so downstream consumers can
// detect gaps.
type MQTTSink struct {
	client mqtt.Client
	offset atomic.Int64
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(brokerURL, clientID string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTSink{client: client}, nil
}

type mqttEnvelope struct {
	OffsetID   int64       `json:"offset_id"`
	IngestedAt time.Time   `json:"ingested_at"`
	Record     interface{} `json:"record"`
}

func (m *MQTTSink) publish(topic string, record interface{}) error {
	payload, err := json.Marshal(mqttEnvelope{
		OffsetID:   m.offset.Add(1),
		IngestedAt: time.Now().UTC(),
		Record:     record,
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	token := m.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// PublishEvents publishes each event as its own message.
func (m *MQTTSink) PublishEvents(_ context.Context, events []models.Event) error {
	for _, e := range events {
		if err := m.publish(eventsTopic, e); err != nil {
			log.WithError(err).Error("Failed to publish event")
			return err
		}
	}
	return nil
}

// PublishSessions publishes each session record as its own message.
func (m *MQTTSink) PublishSessions(_ context.Context, sessions []models.Session) error {
	for _, s := range sessions {
		if err := m.publish(sessionsTopic, s); err != nil {
			log.WithError(err).Error("Failed to publish session")
			return err
		}
	}
	return nil
}

// Flush is a no-op: each publish waits for broker acknowledgement.
func (m *MQTTSink) Flush(context.Context) error { return nil }

// Close disconnects from the broker.
func (m *MQTTSink) Close(context.Context) error {
	m.client.Disconnect(250)
	return nil
}
