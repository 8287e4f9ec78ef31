// Package config loads runtime configuration from the environment. A .env
// file is honored when present. Sink settings are optional on purpose: with
// nothing configured the simulator still runs against a no-op sink.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Sink kinds selectable via PARKING_SINK.
const (
	SinkNone  = "none"
	SinkMongo = "mongo"
	SinkMQTT  = "mqtt"
)

// Config holds all runtime settings.
type Config struct {
	Port         string // HTTP port for the control/status server
	LogLevel     string // logrus level name
	CatalogPath  string // optional YAML facility catalog override
	SinkKind     string // none, mongo or mqtt
	MongoURI     string
	MongoDB      string
	MQTTBroker   string
	MQTTClientID string
	OperatorUser string // control API operator account
	OperatorHash string // bcrypt hash of the operator password
}

// Load reads the environment, honoring a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}
	return Config{
		Port:         getenv("PORT", "8080"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		CatalogPath:  os.Getenv("PARKING_CATALOG"),
		SinkKind:     getenv("PARKING_SINK", SinkNone),
		MongoURI:     getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getenv("MONGO_DB", "parking_iot"),
		MQTTBroker:   getenv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getenv("MQTT_CLIENT_ID", "parking-iot-sim"),
		OperatorUser: getenv("OPERATOR_USER", "operator"),
		OperatorHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
	}
}

// StreamingEnabled reports whether a real sink is configured. Absent sink
// configuration disables streaming without disabling simulation.
func (c Config) StreamingEnabled() bool {
	return c.SinkKind == SinkMongo || c.SinkKind == SinkMQTT
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetenvInt reads an integer env var with a default.
func GetenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.WithField("key", key).Warn("Invalid integer env var, using default")
	}
	return def
}
