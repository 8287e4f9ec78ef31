package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/parkpulse/parking-iot/internal/auth"
	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/config"
	"github.com/parkpulse/parking-iot/internal/engine"
	"github.com/parkpulse/parking-iot/internal/handlers"
	"github.com/parkpulse/parking-iot/internal/middleware"
	"github.com/parkpulse/parking-iot/internal/sink"
)

func main() {
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to load facility catalog")
	}
	log.WithField("facilities", cat.Len()).Info("Facility catalog loaded")

	snk, err := buildSink(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect streaming sink")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := snk.Close(ctx); err != nil {
			log.WithError(err).Warn("Failed to close sink")
		}
	}()

	authService := auth.NewService(cfg.OperatorUser, cfg.OperatorHash)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	tracker := engine.NewTracker()
	handler := handlers.NewSimulatorHandler(authService, cat, snk, tracker)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/api/auth/login", handler.Login)
	mux.HandleFunc("/api/progress", handler.Progress)
	mux.HandleFunc("/api/facilities", handler.Facilities)
	mux.HandleFunc("/api/backfill", handler.StartBackfill)
	mux.HandleFunc("/api/realtime/start", handler.StartRealtime)
	mux.HandleFunc("/api/realtime/stop", handler.StopRealtime)

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("Control server listening")
	if err := http.ListenAndServe(addr, authMiddleware.Authenticate(mux)); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}

// loadCatalog uses the built-in facility table unless PARKING_CATALOG points
// at a YAML override.
func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.CatalogPath)
}

// buildSink connects the configured streaming sink. With sink "none" events
// are generated and dropped, which keeps the simulator usable without any
// backing services.
func buildSink(cfg config.Config) (sink.Sink, error) {
	switch cfg.SinkKind {
	case config.SinkNone:
		log.Info("No streaming sink configured, events will be discarded")
		return sink.Nop{}, nil
	case config.SinkMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := sink.NewMongoSink(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB sink")
		return s, nil
	case config.SinkMQTT:
		s, err := sink.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return nil, err
		}
		log.WithField("broker", cfg.MQTTBroker).Info("Connected to MQTT sink")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.SinkKind)
	}
}
