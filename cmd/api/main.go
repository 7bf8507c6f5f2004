package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "github.com/tim2004timi/traveline-integration/internal/adapters/http_server"
	minioad "github.com/tim2004timi/traveline-integration/internal/adapters/minio"
	"github.com/tim2004timi/traveline-integration/internal/adapters/observability"
	redisad "github.com/tim2004timi/traveline-integration/internal/adapters/redis"
	"github.com/tim2004timi/traveline-integration/internal/adapters/telegram"
	"github.com/tim2004timi/traveline-integration/internal/adapters/traveline"
	"github.com/tim2004timi/traveline-integration/internal/app"
	"github.com/tim2004timi/traveline-integration/internal/shared"
	mysqlrepo "github.com/tim2004timi/traveline-integration/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	roomRepo := mysqlrepo.New(db)
	feedbackRepo := mysqlrepo.NewFeedbackRepo(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	client, err := traveline.New(traveline.Config{
		AuthURL:      cfg.TLAuthURL,
		BaseURL:      cfg.TLBaseURL,
		ClientID:     cfg.TLClientID,
		ClientSecret: cfg.TLClientSecret,
		TokenKey:     cfg.TokenCacheKey,
		TokenTTL:     cfg.TokenTTL,
		RPS:          5,
	}, cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize TravelLine client")
	}

	store, err := minioad.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioSecure, cfg.MinioBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Error().Err(err).Msg("object storage bucket check failed")
	}

	catalog := app.NewCatalogService(roomRepo)
	ingest := app.NewIngestionService(client, roomRepo, cfg.PropertyID)
	feedback := app.NewFeedbackService(feedbackRepo, store)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Catalog: catalog, Feedback: feedback})
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return httpSrv.Shutdown(context.Background())
	})

	// periodic sync: one cycle at startup, then every SyncInterval
	g.Go(func() error {
		log.Info().Dur("interval", cfg.SyncInterval).Str("property", cfg.PropertyID).Msg("sync loop starting")
		return ingest.Run(gctx, cfg.SyncInterval)
	})

	// admin bot, when configured
	if cfg.TelegramToken != "" {
		bot, err := telegram.New(cfg.TelegramToken, cfg.AdminIDs, feedback)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize admin bot")
		}
		g.Go(func() error { return bot.Run(gctx) })
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN is empty; admin bot disabled")
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("service failed")
	}
	log.Info().Msg("shutdown complete")
}
