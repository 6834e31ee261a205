package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/config"
	"github.com/abdoElHodaky/matchcore/internal/domain"
	"github.com/abdoElHodaky/matchcore/internal/eventsink"
	"github.com/abdoElHodaky/matchcore/internal/manager"
	"github.com/abdoElHodaky/matchcore/internal/matching"
	"github.com/abdoElHodaky/matchcore/internal/metrics"
	"github.com/abdoElHodaky/matchcore/internal/snapshot"
)

const (
	appName    = "matchcore"
	appVersion = "v1.0.0"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration directory")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("%s %s\n", appName, appVersion)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := config.InitLogger(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.Uint64("snapshot_interval", cfg.SnapshotInterval),
		zap.String("snapshot_path", cfg.SnapshotPath),
	)

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.Supply(fx.Annotate(fmt.Sprintf(":%d", cfg.MetricsPort), fx.ResultTags(`name:"metricsAddr"`))),
		metrics.Module,
		fx.Provide(
			domain.DefaultFeeSchedule,
			newEngine,
			newSink,
			newStore,
			newManager,
		),
		fx.Invoke(
			metrics.RegisterServer,
			rehydrate,
		),
	)

	app.Run()
}

func newEngine(fees domain.FeeSchedule, logger *zap.Logger) *matching.Engine {
	return matching.New(fees, logger)
}

func newSink(cfg *config.Config, logger *zap.Logger) eventsink.Sink {
	sink, err := eventsink.NewNATSSink(eventsink.NATSConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, logger)
	if err != nil {
		logger.Warn("event sink unavailable, falling back to in-memory sink", zap.Error(err))
		return eventsink.NewMemorySink()
	}
	return sink
}

func newStore(cfg *config.Config, logger *zap.Logger) *snapshot.Store {
	return snapshot.New(cfg.SnapshotPath, logger)
}

func newManager(cfg *config.Config, engine *matching.Engine, sink eventsink.Sink, store *snapshot.Store, m *metrics.Metrics, logger *zap.Logger) *manager.Manager {
	mgr := manager.New(engine, sink, store, cfg.SnapshotInterval, logger)
	mgr.SetMetrics(m)
	return mgr
}

// rehydrate loads every stored snapshot before the process starts
// accepting traffic. The request surface itself lives in
// internal/rpcapi; a transport gateway embeds rpcapi.Service to put
// it on the wire.
func rehydrate(lc fx.Lifecycle, mgr *manager.Manager, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := mgr.Rehydrate(); err != nil {
				logger.Error("rehydrate failed", zap.Error(err))
				return err
			}
			logger.Info("matching core ready")
			return nil
		},
	})
}
