package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/Linxify/config"
	appmodel "github.com/sifan077/Linxify/internal/app/model"
	apprepository "github.com/sifan077/Linxify/internal/app/repository"
	appserver "github.com/sifan077/Linxify/internal/app/server"
	appservice "github.com/sifan077/Linxify/internal/app/service"
	"github.com/sifan077/Linxify/internal/app/webpage"
	"github.com/sifan077/Linxify/internal/http/middleware"
	"github.com/sifan077/Linxify/internal/infra/logger"
	"github.com/sifan077/Linxify/internal/infra/mailer"
	infraNATS "github.com/sifan077/Linxify/internal/infra/nats"
	"github.com/sifan077/Linxify/internal/infra/objectstore"
	infraPostgres "github.com/sifan077/Linxify/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/Linxify/internal/infra/prometheus"
	infraRedis "github.com/sifan077/Linxify/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
	})
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.Int("port", cfg.Server.Port),
		zap.String("base_url", cfg.Server.BaseURL),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("storage_enabled", cfg.Storage.Enabled),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres, logger.Named("gorm"))
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.User{},
		&appmodel.Category{},
		&appmodel.Link{},
		&appmodel.Highlight{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis, logger.Named("redis"))
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	if cfg.Prometheus.Enabled || !isDev {
		promServer, err := infraPrometheus.NewServer(cfg.Prometheus, sqlDB)
		if err != nil {
			log.Fatal("Failed to build Prometheus server", zap.Error(err))
		}
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	userRepo := apprepository.NewUserRepository(gormDB)
	linkRepo := apprepository.NewLinkRepository(gormDB)
	categoryRepo := apprepository.NewCategoryRepository(gormDB)
	highlightRepo := apprepository.NewHighlightRepository(gormDB)

	var snapshots appservice.SnapshotStore
	if cfg.Storage.Enabled {
		store, err := objectstore.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			log.Fatal("Failed to connect to MinIO", zap.Error(err))
		}
		snapshots = store
		log.Info("Snapshot storage ready", zap.String("bucket", cfg.Storage.Bucket))
	}

	fetcher := webpage.NewFetcher(cfg.Archive.Timeout, cfg.Archive.MaxBodyBytes)
	scraper := webpage.NewScraper(fetcher, cfg.Archive.ScraperAgent)
	extractor := webpage.NewExtractor(fetcher, cfg.Archive.UserAgent)

	archiver := appservice.NewArchiveService(linkRepo, extractor, snapshots, logger.Named("archiver"))
	inline := appservice.NewInlineArchiveDispatcher(archiver, cfg.Archive.Timeout, logger.Named("archiver"))

	var dispatcher appservice.ArchiveDispatcher = inline
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, logger.Named("nats"))
		if err != nil {
			log.Warn("NATS unavailable, archiving in-process", zap.Error(err))
		} else {
			defer drain(natsConn, log)
			consumer := appservice.NewArchiveConsumer(js, logger.Named("archive-consumer"), archiver, cfg.Archive.Timeout)
			if err := consumer.Start(); err != nil {
				log.Warn("Failed to start archive consumer, archiving in-process", zap.Error(err))
			} else {
				defer consumer.Stop()
				dispatcher = appservice.NewQueueArchiveDispatcher(appservice.NewArchivePublisher(js), inline, logger.Named("archiver"))
				log.Info("Archive queue ready", zap.String("stream", appmodel.ArchiveStreamName))
			}
		}
	}

	var mail mailer.Mailer = mailer.NewLog(logger.Named("mailer"))
	if cfg.Mail.ResendAPIKey != "" {
		mail = mailer.NewResend(cfg.Mail.ResendAPIKey, cfg.Mail.From)
	} else {
		log.Warn("RESEND_API_KEY not set, password reset emails are logged only")
	}

	authService := appservice.NewAuthService(appservice.AuthDeps{
		Users:  userRepo,
		Tokens: appservice.NewResetTokens([]byte(cfg.Server.Secret)),
		Mailer: mail,
		Logger: logger.Named("auth"),
	}, appservice.AuthOptions{
		BaseURL:       cfg.Server.BaseURL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	if err := authService.WarmEmailIndex(ctx); err != nil {
		log.Warn("Failed to warm email index", zap.Error(err))
	}

	sweeper := appservice.NewResetTokenSweeper(logger.Named("reset-sweeper"), userRepo, cfg.Auth.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:   log,
		Postgres: pool,
		Redis:    redisClient,
		Sessions: infraRedis.NewSessionStore(redisClient, cfg.Server.SessionTTL),

		Auth: authService,
		Links: appservice.NewLinkService(appservice.LinkDeps{
			Links:      linkRepo,
			Categories: categoryRepo,
			Archiver:   dispatcher,
			Snapshots:  snapshots,
			Logger:     logger.Named("links"),
		}),
		Categories: appservice.NewCategoryService(categoryRepo),
		Highlights: appservice.NewHighlightService(highlightRepo, linkRepo),
		Scraper:    scraper,

		AllowedOrigins: []string{cfg.Server.BaseURL},
		CookieSecure:   cfg.Server.CookieSecure,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
			KeyPrefix:   "linxify:ratelimit",
		},
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Fiber server exited", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down HTTP server cleanly", zap.Error(err))
		}
	}
}

func drain(conn *nats.Conn, log *zap.Logger) {
	if err := conn.Drain(); err != nil {
		log.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}
