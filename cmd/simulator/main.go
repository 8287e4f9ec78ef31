package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parkpulse/parking-iot/internal/catalog"
	"github.com/parkpulse/parking-iot/internal/config"
	"github.com/parkpulse/parking-iot/internal/engine"
	"github.com/parkpulse/parking-iot/internal/models"
	"github.com/parkpulse/parking-iot/internal/sink"
)

var (
	// CLI flags shared across subcommands
	seed        int64  // Seed for random generation
	logLevel    string // Log verbosity level
	catalogPath string // Optional YAML facility catalog
	sinkKind    string // none, mongo or mqtt
	dryRun      bool   // Force the no-op sink regardless of config

	// Real-time flags
	tickMillis int // Tick interval in milliseconds

	// Backfill flags
	startDate string // Inclusive start date, YYYY-MM-DD
	endDate   string // Inclusive end date, YYYY-MM-DD
	batchSize int    // Records per sink delivery
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "parking-sim",
	Short: "Parking facility IoT traffic simulator",
}

// runCmd drives the real-time engine until interrupted
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the real-time simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cat, snk := setup()
		defer closeSink(snk)

		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		eng := engine.NewRealTime(cat, snk, rng, time.Now())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logrus.Infof("Starting real-time simulation with %d facilities, seed=%d", cat.Len(), seed)
		eng.Run(ctx, time.Duration(tickMillis)*time.Millisecond)
	},
}

// backfillCmd replays a historical date range and exits
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate historical data for a date range",
	Run: func(cmd *cobra.Command, args []string) {
		cat, snk := setup()
		defer closeSink(snk)

		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			logrus.Fatalf("Invalid --start-date: %v", err)
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			logrus.Fatalf("Invalid --end-date: %v", err)
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		tracker := engine.NewTracker()
		eng := engine.NewHistorical(cat, snk, tracker)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runErr := eng.Run(ctx, engine.HistoricalConfig{
			Start:     start,
			End:       end,
			BatchSize: batchSize,
			Seed:      seed,
		})

		snap := tracker.Snapshot()
		fmt.Printf("Backfill %s: %d days, %d events, %d sessions\n",
			snap.Status, snap.DaysCompleted, snap.TotalEvents, snap.TotalSessions)
		if runErr != nil || snap.Status == models.BackfillFailed {
			os.Exit(1)
		}
	},
}

// setup applies the log level and builds the catalog and sink from flags,
// falling back to the environment for connection settings.
func setup() (*catalog.Catalog, sink.Sink) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	cat := catalog.Default()
	if catalogPath != "" {
		cat, err = catalog.LoadFile(catalogPath)
		if err != nil {
			logrus.Fatalf("Failed to load catalog %s: %v", catalogPath, err)
		}
	}

	if dryRun {
		return cat, sink.Nop{}
	}

	cfg := config.Load()
	switch sinkKind {
	case config.SinkNone:
		return cat, sink.Nop{}
	case config.SinkMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := sink.NewMongoSink(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logrus.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		return cat, s
	case config.SinkMQTT:
		s, err := sink.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			logrus.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		return cat, s
	default:
		logrus.Fatalf("Unknown sink kind: %s", sinkKind)
		return nil, nil
	}
}

func closeSink(snk sink.Sink) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := snk.Close(ctx); err != nil {
		logrus.Warnf("Failed to close sink: %v", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for random generation (0 picks a time-based seed)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "YAML facility catalog (default: built-in NYC table)")
	rootCmd.PersistentFlags().StringVar(&sinkKind, "sink", config.SinkNone, "Streaming sink (none, mongo, mqtt)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Generate without delivering to any sink")

	runCmd.Flags().IntVar(&tickMillis, "tick", 500, "Tick interval in milliseconds")

	backfillCmd.Flags().StringVar(&startDate, "start-date", "", "Inclusive start date (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&endDate, "end-date", "", "Inclusive end date (YYYY-MM-DD)")
	backfillCmd.Flags().IntVar(&batchSize, "batch-size", 1000, "Records per sink delivery")
	backfillCmd.MarkFlagRequired("start-date")
	backfillCmd.MarkFlagRequired("end-date")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(backfillCmd)
}
