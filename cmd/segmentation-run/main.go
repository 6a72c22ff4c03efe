package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retail-pulse/segmentation-engine/internal/adapter"
	"github.com/retail-pulse/segmentation-engine/internal/config"
	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/engine"
	"github.com/retail-pulse/segmentation-engine/internal/export"
	"github.com/retail-pulse/segmentation-engine/internal/ingest"
	"github.com/retail-pulse/segmentation-engine/internal/logger"
	"github.com/retail-pulse/segmentation-engine/internal/messaging"
	"github.com/retail-pulse/segmentation-engine/internal/providers/jetstream"
	"github.com/retail-pulse/segmentation-engine/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadRunnerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "segmentation-run",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting segmentation run")

	clock := adapter.NewClock()

	params, err := cfg.Analysis.RunParams()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid analysis parameters", zap.Error(err))
	}

	// Connect to database when the input source or persistence needs it
	var db *gorm.DB
	if cfg.Input.Source == "postgres" || cfg.Database.Host != "" {
		db, err = store.Open(ctx, cfg.Database.DSN(), 30*time.Second)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}
		if err := store.AutoMigrate(db); err != nil {
			logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database", zap.String("host", cfg.Database.Host))
	}

	// Load input data
	input, err := loadInput(ctx, cfg, db, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load input data", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Loaded input data",
		zap.Int("transactions", len(input.Transactions)),
		zap.Int("customers", len(input.Customers)),
	)

	// Run the analysis pipeline
	eng := engine.New(engine.Config{WorkerPoolSize: cfg.Analysis.WorkerPoolSize}, clock)
	result, err := eng.Run(ctx, input, params)
	if err != nil {
		logger.FatalCtx(ctx, "Analysis run failed", zap.Error(err))
	}

	// Persist the snapshot
	if db != nil {
		dataStore := store.NewPGStore(db)
		if err := dataStore.SaveRun(ctx, result); err != nil {
			logger.FatalCtx(ctx, "Failed to persist run", zap.Error(err), zap.String("run_id", result.RunID))
		}
		logger.InfoCtx(ctx, "Persisted run snapshot", zap.String("run_id", result.RunID))
	}

	// Export CSV reports
	if cfg.Export.Dir != "" {
		if err := export.WriteRunCSV(cfg.Export.Dir, result); err != nil {
			logger.FatalCtx(ctx, "Failed to export run", zap.Error(err), zap.String("dir", cfg.Export.Dir))
		}
		logger.InfoCtx(ctx, "Exported run reports", zap.String("dir", cfg.Export.Dir))
	}

	// Announce completion on the message broker
	if cfg.NATS.URL != "" {
		publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: "segmentation-run",
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err))
		}
		defer publisher.Close()

		event := &messaging.RunCompletedEvent{
			RunID:         result.RunID,
			AsOf:          result.Params.AsOf,
			GeneratedAt:   result.GeneratedAt,
			CustomerCount: len(result.Customers),
			SegmentCount:  len(result.Segments),
			CohortCount:   len(result.Cohorts),
		}
		if err := publisher.PublishRunCompleted(ctx, event); err != nil {
			logger.FatalCtx(ctx, "Failed to publish run event", zap.Error(err), zap.String("run_id", result.RunID))
		}
		logger.InfoCtx(ctx, "Published run completed event", zap.String("run_id", result.RunID))
	}

	logger.InfoCtx(ctx, "Segmentation run finished",
		zap.String("run_id", result.RunID),
		zap.Time("as_of", result.Params.AsOf),
		zap.Int("customers", len(result.Customers)),
		zap.Int("segments", len(result.Segments)),
		zap.Int("cohorts", len(result.Cohorts)),
	)
}

// loadInput reads transactions and customers from the configured source
func loadInput(ctx context.Context, cfg *config.RunnerConfig, db *gorm.DB, clock adapter.Clock) (engine.Input, error) {
	switch cfg.Input.Source {
	case "csv":
		loader := ingest.NewLoader(clock)
		txs, err := loader.LoadTransactions(cfg.Input.TransactionsCSV)
		if err != nil {
			return engine.Input{}, err
		}
		var customers []domain.Customer
		if cfg.Input.CustomersCSV != "" {
			customers, err = loader.LoadCustomers(cfg.Input.CustomersCSV)
			if err != nil {
				return engine.Input{}, err
			}
		}
		return engine.Input{Transactions: txs, Customers: customers}, nil

	case "postgres":
		dataStore := store.NewPGStore(db)
		txs, err := dataStore.LoadTransactions(ctx)
		if err != nil {
			return engine.Input{}, err
		}
		customers, err := dataStore.LoadCustomers(ctx)
		if err != nil {
			return engine.Input{}, err
		}
		return engine.Input{Transactions: txs, Customers: customers}, nil

	default:
		return engine.Input{}, fmt.Errorf("unknown input source %q", cfg.Input.Source)
	}
}
