// molimportd is the import service daemon: it wires configuration, storage,
// messaging and metrics together and serves the HTTP import API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/config"
	"github.com/chemlattice/molimport/internal/domain/catalog"
	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/internal/infrastructure/database/postgres"
	"github.com/chemlattice/molimport/internal/infrastructure/database/postgres/repositories"
	"github.com/chemlattice/molimport/internal/infrastructure/database/redis"
	"github.com/chemlattice/molimport/internal/infrastructure/messaging/kafka"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/prometheus"
	"github.com/chemlattice/molimport/internal/infrastructure/storage/minio"
	httpserver "github.com/chemlattice/molimport/internal/interfaces/http"
	"github.com/chemlattice/molimport/internal/interfaces/http/handlers"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (empty: environment only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	logger.Info("starting molimportd")

	cat, err := buildCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.MigrationPath != "" {
		if err := postgres.Migrate(pool, cfg.Database.MigrationPath, logger); err != nil {
			return err
		}
	}

	repo := repositories.NewMoleculeRepository(pool, logger)

	var exists importer.ExistsChecker = repoExists{repo}
	health := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	var rdb *goredis.Client
	if cfg.Import.UseExistsCache {
		rdb, err = redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		exists = redis.NewKeyCache(rdb, exists, cfg.Redis.KeyPrefix, cfg.Redis.KeyTTL, logger)
		health["cache"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	metrics := prometheus.NewImportMetrics()

	svc := importer.NewService(cat, molecule.NewNotationParser(), logger,
		importer.WithWorkers(cfg.Import.Workers),
		importer.WithExistsChecker(exists),
		importer.WithMetrics(metrics))

	var publisher importer.EventPublisher
	if cfg.Import.PublishEvents {
		producer := kafka.NewProducer(cfg.Kafka, logger)
		defer producer.Close()
		publisher = producer
	}

	var archiver importer.UploadArchiver
	if cfg.Import.ArchiveUploads {
		mc, err := minio.NewClient(ctx, cfg.MinIO, logger)
		if err != nil {
			return err
		}
		archiver = minio.NewArchiver(mc)
	}

	session := importer.NewSessionService(svc, repo, publisher, archiver, logger)

	routerCfg := httpserver.RouterConfig{
		ImportHandler: handlers.NewImportHandler(session, cfg.Import.MaxRows, logger),
		HealthHandler: handlers.NewHealthHandler(health),
		Mode:          cfg.Server.Mode,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Logger:        logger,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsHandler = metrics.Handler()
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// Hot-reload notice only; infrastructure connections are not rebuilt on
	// the fly.
	if configPath != "" {
		watcher, werr := config.NewWatcher(configPath, func(*config.Config) {
			logger.Warn("configuration file changed; restart to apply infrastructure settings")
		}, logger)
		if werr != nil {
			logger.Warn("config watcher unavailable", logging.Err(werr))
		} else {
			go watcher.Run(ctx)
			defer watcher.Close()
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	logger.Info("molimportd stopped")
	return nil
}

// buildCatalog loads the configured catalog (or the built-in default) and
// applies per-property range overrides.
func buildCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.Path != "" {
		loaded, err := catalog.LoadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	if len(cfg.Ranges) == 0 {
		return cat, nil
	}
	overrides := make(map[string]mtypes.PropertyRange, len(cfg.Ranges))
	for name, r := range cfg.Ranges {
		overrides[name] = mtypes.PropertyRange{Min: r.Min, Max: r.Max}
	}
	return cat.WithRanges(overrides)
}

// repoExists adapts the molecule repository to the import duplicate check.
type repoExists struct {
	repo molecule.Repository
}

func (a repoExists) Exists(ctx context.Context, key string) (bool, error) {
	return a.repo.ExistsByCanonicalKey(ctx, key)
}
