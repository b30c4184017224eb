package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_syncer/internal/config"
	"news_syncer/internal/domain"
	"news_syncer/internal/fetch"
	"news_syncer/internal/lock"
	"news_syncer/internal/media"
	"news_syncer/internal/publisher"
	"news_syncer/internal/scheduler"
	"news_syncer/internal/service"
	"news_syncer/internal/source/thk"
	"news_syncer/internal/storage/postgres"
	"news_syncer/internal/storage/s3"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run every content type once and exit, ignoring sync.interval")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

	blobs, err := s3.New(ctx, s3.Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		PublicACL:       cfg.Storage.ACLEnabled(),
		UsePathStyle:    cfg.Storage.UsePathStyle,
	}, logger)
	if err != nil {
		logger.Error("failed to init object storage", "error", err)
		return 1
	}

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return 1
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	var locker scheduler.Locker
	if cfg.Redis.URL != "" {
		redisLocker, err := lock.NewRedisLocker(lock.Config{URL: cfg.Redis.URL, TTL: cfg.Redis.LockTTL}, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	client := fetch.New(fetch.Config{
		UserAgent:          cfg.Source.UserAgent,
		InsecureSkipVerify: cfg.Source.SkipVerify(),
		PageTimeout:        cfg.Source.PageTimeout,
		ImageTimeout:       cfg.Source.ImageTimeout,
		MaxAttempts:        cfg.Source.Retry.MaxAttempts,
		InitialBackoff:     cfg.Source.Retry.InitialBackoff,
		MaxBackoff:         cfg.Source.Retry.MaxBackoff,
	}, logger)

	pipeline, err := media.NewPipeline(client, blobs, media.Config{
		ScratchDir: cfg.Images.ScratchDir,
		Transcode: media.TranscodeConfig{
			MaxWidth:       cfg.Images.MaxWidth,
			MaxHeight:      cfg.Images.MaxHeight,
			JPEGQuality:    cfg.Images.JPEGQuality,
			WebPQuality:    cfg.Images.WebPQuality,
			WebPMethod:     cfg.Images.WebPMethod,
			PNGCompression: cfg.Images.PNGLevel(),
		},
	}, logger)
	if err != nil {
		logger.Error("failed to init image pipeline", "error", err)
		return 1
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warn("failed to sweep scratch dir", "error", err)
		}
	}()

	location, err := time.LoadLocation(cfg.Source.Timezone)
	if err != nil {
		logger.Error("failed to load source timezone", "timezone", cfg.Source.Timezone, "error", err)
		return 1
	}
	source, err := thk.New(client, thk.Config{BaseURL: cfg.Source.BaseURL, Location: location}, logger)
	if err != nil {
		logger.Error("failed to init source", "error", err)
		return 1
	}

	// Initialize stores
	collections := postgres.NewCollectionStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	txManager := postgres.NewTransactionManager(db)
	pacer := service.FixedDelay{Interval: cfg.Sync.ItemDelay}

	var syncers []scheduler.Syncer
	for _, ct := range contentTypes(cfg) {
		syncers = append(syncers, service.NewSyncService(
			ct,
			source,
			collections,
			syncStateStore,
			txManager,
			pipeline,
			pub,
			pacer,
			logger,
			cfg.Sync,
		))
	}

	sched := scheduler.NewScheduler(syncers, cfg.Sync.Interval, cfg.Sync.RunTimeout, locker, logger)

	logger.Info("starting news syncer",
		"source", source.Name(),
		"content_types", len(syncers),
		"interval", cfg.Sync.Interval,
		"once", *once || cfg.Sync.Interval == 0,
	)

	if *once || cfg.Sync.Interval == 0 {
		if err := sched.RunOnce(ctx); err != nil {
			logger.Error("run failed", "error", err)
			return 1
		}
		return 0
	}

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		return 1
	}
	return 0
}

// contentTypes returns the configured listings, or the two THK defaults.
func contentTypes(cfg *config.Config) []domain.ContentType {
	if len(cfg.ContentTypes) == 0 {
		return []domain.ContentType{
			thk.WithBase(thk.DefaultNews(), cfg.Source.BaseURL),
			thk.WithBase(thk.DefaultAnnouncements(), cfg.Source.BaseURL),
		}
	}

	out := make([]domain.ContentType, 0, len(cfg.ContentTypes))
	for _, ct := range cfg.ContentTypes {
		out = append(out, thk.WithDefaults(ct.ContentType()))
	}
	return out
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
