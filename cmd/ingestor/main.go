package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/tim2004timi/traveline-integration/internal/adapters/observability"
	redisad "github.com/tim2004timi/traveline-integration/internal/adapters/redis"
	"github.com/tim2004timi/traveline-integration/internal/adapters/traveline"
	"github.com/tim2004timi/traveline-integration/internal/app"
	"github.com/tim2004timi/traveline-integration/internal/shared"
	mysqlrepo "github.com/tim2004timi/traveline-integration/internal/storage/mysql"
)

// One-shot sync cycle: acquire credential, fetch the property document,
// replace the stored inventory. Exits non-zero on failure so cron/CI can see
// it.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.TLBaseURL).
		Str("property", cfg.PropertyID).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
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

	ing := app.NewIngestionService(client, repo, cfg.PropertyID)
	if err := ing.SyncRoomTypes(ctx); err != nil {
		log.Fatal().Err(err).Msg("sync failed")
	}
	log.Info().Msg("sync completed")
}
