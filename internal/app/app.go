// Package app builds and holds long-lived application services, acting
// as the dependency injection container for the serve command.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/slarchive/linkarchive/internal/api"
	"github.com/slarchive/linkarchive/internal/archive"
	"github.com/slarchive/linkarchive/internal/clock/system"
	"github.com/slarchive/linkarchive/internal/config"
	collyfetcher "github.com/slarchive/linkarchive/internal/fetcher/colly"
	"github.com/slarchive/linkarchive/internal/id/uuid"
	"github.com/slarchive/linkarchive/internal/logging"
	"github.com/slarchive/linkarchive/internal/metrics"
	"github.com/slarchive/linkarchive/internal/normalize"
	memorypublisher "github.com/slarchive/linkarchive/internal/publisher/memory"
	gcppublisher "github.com/slarchive/linkarchive/internal/publisher/pubsub"
	gcsstorage "github.com/slarchive/linkarchive/internal/storage/gcs"
	localstorage "github.com/slarchive/linkarchive/internal/storage/local"
	memorystorage "github.com/slarchive/linkarchive/internal/storage/memory"
	pgstore "github.com/slarchive/linkarchive/internal/storage/postgres"
	sqlitestore "github.com/slarchive/linkarchive/internal/storage/sqlite"
)

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	apiServer *api.Server

	sqliteStore  *sqlitestore.RecordStore
	pgStore      *pgstore.RecordStore
	gcsClient    *gstorage.Client
	pubsubClient *pubsub.Client
	pubsubTopic  *pubsub.Topic
}

// Build creates the application's dependencies from configuration.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	a := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies")

	records, err := a.setupRecords(ctx)
	if err != nil {
		return nil, err
	}
	blobs, err := a.setupBlobs(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := a.setupPublisher(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})

	svc := archive.NewService(
		fetcher,
		normalize.New(),
		records,
		blobs,
		publisher,
		archive.NewSaltedCodeGenerator(),
		uuid.NewUUIDGenerator(),
		system.New(),
		logger,
	)
	a.apiServer = api.NewServer(svc, cfg, logger)
	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled
// or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	return a.Close()
}

// Close gracefully shuts down application services.
func (a *App) Close() error {
	if a.sqliteStore != nil {
		if err := a.sqliteStore.Close(); err != nil {
			a.logger.Warn("sqlite close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.pubsubTopic != nil {
		a.pubsubTopic.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) setupRecords(ctx context.Context) (archive.RecordStore, error) {
	switch a.cfg.Storage.RecordsProvider {
	case "sqlite":
		store, err := sqlitestore.Open(a.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.logger.Info("using sqlite record store", zap.String("path", a.cfg.Storage.SQLitePath))
		a.sqliteStore = store
		return store, nil
	case "postgres":
		store, err := pgstore.NewRecordStore(ctx, pgstore.RecordStoreConfig{
			DSN:   a.cfg.Storage.DSN,
			Table: a.cfg.Storage.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.logger.Info("using postgres record store", zap.String("table", a.cfg.Storage.Table))
		a.pgStore = store
		return store, nil
	case "memory":
		a.logger.Info("using in-memory record store, records will not survive restart")
		return memorystorage.NewRecordStore(), nil
	default:
		return nil, fmt.Errorf("unknown records provider: %s", a.cfg.Storage.RecordsProvider)
	}
}

func (a *App) setupBlobs(ctx context.Context) (archive.BlobStore, error) {
	switch a.cfg.Storage.BlobsProvider {
	case "local":
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("open local blob store: %w", err)
		}
		a.logger.Info("using local blob store", zap.String("base_dir", a.cfg.Storage.BaseDir))
		return store, nil
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.gcsClient = client
		store, err := gcsstorage.New(client, gcsstorage.Config{
			Bucket: a.cfg.Storage.GCSBucket,
			Prefix: a.cfg.Storage.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open gcs blob store: %w", err)
		}
		a.logger.Info("using gcs blob store", zap.String("bucket", a.cfg.Storage.GCSBucket))
		return store, nil
	case "memory":
		a.logger.Info("using in-memory blob store, archives will not survive restart")
		return memorystorage.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown blobs provider: %s", a.cfg.Storage.BlobsProvider)
	}
}

func (a *App) setupPublisher(ctx context.Context) (archive.Publisher, error) {
	switch a.cfg.Events.Provider {
	case "noop":
		return nil, nil
	case "memory":
		return memorypublisher.New(), nil
	case "pubsub":
		client, err := pubsub.NewClient(ctx, a.cfg.Events.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		a.pubsubClient = client
		a.pubsubTopic = client.Topic(a.cfg.Events.TopicID)
		a.logger.Info("publishing archive events", zap.String("topic", a.cfg.Events.TopicID))
		return gcppublisher.New(a.pubsubTopic), nil
	default:
		return nil, fmt.Errorf("unknown events provider: %s", a.cfg.Events.Provider)
	}
}
