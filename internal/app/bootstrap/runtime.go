package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-calendar/internal/appointments"
	appconfig "github.com/wolfman30/clinic-calendar/internal/config"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// Store names accepted by CALENDAR_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreS3       = "s3"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL and pings it.
func BuildPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// PersisterDeps are the backend clients a persister may need. Only the one
// matching the configured store has to be set.
type PersisterDeps struct {
	Redis    *redis.Client
	Postgres appointments.DB
	S3       appointments.S3API
}

// BuildPersister selects the calendar persister named by cfg.CalendarStore.
func BuildPersister(cfg *appconfig.Config, deps PersisterDeps, logger *logging.Logger) (appointments.Persister, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	store := strings.ToLower(strings.TrimSpace(cfg.CalendarStore))
	switch store {
	case "", StoreMemory:
		logger.Warn("calendar stored in memory; appointments are lost on restart")
		return appointments.NewMemoryPersister(), nil
	case StoreRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("bootstrap: redis store selected but redis is unavailable")
		}
		return appointments.NewRedisPersister(deps.Redis, ""), nil
	case StorePostgres:
		if deps.Postgres == nil {
			return nil, fmt.Errorf("bootstrap: postgres store selected but no database connection")
		}
		return appointments.NewPostgresPersister(deps.Postgres), nil
	case StoreS3:
		if deps.S3 == nil {
			return nil, fmt.Errorf("bootstrap: s3 store selected but no s3 client")
		}
		return appointments.NewS3Persister(deps.S3, cfg.CalendarS3Bucket, cfg.CalendarS3Key)
	default:
		return nil, fmt.Errorf("bootstrap: unknown calendar store %q", cfg.CalendarStore)
	}
}
