package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string

	TLAuthURL      string
	TLBaseURL      string
	TLClientID     string
	TLClientSecret string
	PropertyID     string

	SyncInterval time.Duration
	// Token is cached shorter than the upstream 15-minute lifetime so a
	// cached token can never be served expired.
	TokenCacheKey string
	TokenTTL      time.Duration

	TelegramToken string
	AdminIDs      []int64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8000"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/traveline?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		TLAuthURL:      env("TRAVELINE_AUTH_URL", "https://partner.tlintegration.com/auth/token"),
		TLBaseURL:      env("TRAVELINE_API_BASE_URL", "https://partner.tlintegration.com/api/content"),
		TLClientID:     env("TRAVELINE_CLIENT_ID", "api_connection"),
		TLClientSecret: env("TRAVELINE_CLIENT_SECRET", ""),
		PropertyID:     env("PROPERTY_ID", "19208"),

		SyncInterval:  time.Duration(atoi("SYNC_INTERVAL_MINUTES", 2)) * time.Minute,
		TokenCacheKey: env("TOKEN_CACHE_KEY", "traveline_access_token"),
		TokenTTL:      time.Duration(atoi("TOKEN_CACHE_TTL_SECONDS", 14*60)) * time.Second,

		TelegramToken: env("TELEGRAM_BOT_TOKEN", ""),
		AdminIDs:      parseIDs(os.Getenv("TELEGRAM_ADMIN_IDS")),

		MinioEndpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: env("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: env("MINIO_SECRET_KEY", ""),
		MinioBucket:    env("MINIO_BUCKET_NAME", "video-feedbacks"),
		MinioSecure:    env("MINIO_SECURE", "false") == "true",
	}
	if c.TLClientSecret == "" {
		log.Warn().Msg("TRAVELINE_CLIENT_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// parseIDs reads the comma-separated admin allow-list. Malformed entries are
// dropped with a warning rather than failing startup.
func parseIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Warn().Str("id", part).Msg("ignoring non-numeric admin id")
			continue
		}
		out = append(out, n)
	}
	return out
}
