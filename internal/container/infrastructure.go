package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ai-referral-go/migrations"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

var errMissingDatabaseURL = errors.New("database url is required for postgres storage")

// Redis owns the shared Redis client and closes it on shutdown.
type Redis struct {
	*redis.Client
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Close()
}

// Postgres owns the connection pool and closes it on shutdown.
type Postgres struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// RedisPackage provides the Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}

		logger.Info("connected to redis", zap.String("addr", opts.RedisAddr))

		return &Redis{Client: client}, nil
	})
}

// PostgresPackage provides the connection pool with the schema applied.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			return nil, errMissingDatabaseURL
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()

			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		logger.Info("connected to postgres")

		return &Postgres{Pool: pool}, nil
	})
}
