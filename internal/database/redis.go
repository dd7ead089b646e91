package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/avicola-track/farm-service/pkg/metrics"
)

// RedisDB holds the cache client and the client used for JWT revocation.
// Without a dedicated auth URL both point at the same connection pool.
type RedisDB struct {
	client     *redis.Client
	authClient *redis.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func clientOptions(url string, maxConns int) (*redis.Options, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	opt.PoolSize = maxConns
	opt.MinIdleConns = 1
	opt.MaxIdleConns = maxConns / 2
	opt.ConnMaxLifetime = time.Hour
	opt.ConnMaxIdleTime = 30 * time.Minute
	opt.PoolTimeout = 30 * time.Second
	opt.ReadTimeout = 10 * time.Second
	opt.WriteTimeout = 10 * time.Second
	return opt, nil
}

// NewRedisDB connects to the cache database and, when redisAuthURL is set,
// to the separate database holding revoked token ids
func NewRedisDB(redisURL, redisAuthURL string, maxConns int, logger *slog.Logger, metricsCollector *metrics.Metrics) (*RedisDB, error) {
	opt, err := clientOptions(redisURL, maxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	var authOpt *redis.Options
	if redisAuthURL != "" {
		if authOpt, err = clientOptions(redisAuthURL, maxConns); err != nil {
			return nil, fmt.Errorf("failed to parse Redis Auth URL: %w", err)
		}
	}

	client := redis.NewClient(opt)
	authClient := client
	if authOpt != nil {
		authClient = redis.NewClient(authOpt)
	}

	rdb := &RedisDB{
		client:     client,
		authClient: authClient,
		logger:     logger,
		metrics:    metricsCollector,
	}

	if metricsCollector != nil {
		hook := &metricsHook{metrics: metricsCollector}
		client.AddHook(hook)
		if authClient != client {
			authClient.AddHook(hook)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = rdb.closeClients()
		return nil, fmt.Errorf("failed to ping Redis cache: %w", err)
	}
	if authClient != client {
		if err := authClient.Ping(ctx).Err(); err != nil {
			_ = rdb.closeClients()
			return nil, fmt.Errorf("failed to ping Redis auth: %w", err)
		}
	}

	if metricsCollector != nil {
		metricsCollector.RedisConnections.Set(float64(client.PoolStats().TotalConns))
		metricsCollector.UpdateDependencyHealth("redis", true)
	}

	logger.Info("Redis connections established",
		"max_conns", maxConns,
		"cache_addr", opt.Addr,
		"cache_db", opt.DB,
		"dedicated_auth", authClient != client,
	)

	return rdb, nil
}

// Client returns the cache client
func (r *RedisDB) Client() *redis.Client {
	return r.client
}

// Health pings both connections
func (r *RedisDB) Health(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		err = fmt.Errorf("redis cache health check failed: %w", err)
	} else if r.authClient != r.client {
		if authErr := r.authClient.Ping(ctx).Err(); authErr != nil {
			err = fmt.Errorf("redis auth health check failed: %w", authErr)
		}
	}

	if r.metrics != nil {
		r.metrics.UpdateDependencyHealth("redis", err == nil)
		if err == nil {
			r.metrics.RedisConnections.Set(float64(r.client.PoolStats().TotalConns))
		}
	}
	return err
}

func (r *RedisDB) closeClients() error {
	var errs []error
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis cache: %w", err))
		}
	}
	if r.authClient != nil && r.authClient != r.client {
		if err := r.authClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis auth: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("redis close errors: %v", errs)
	}
	return nil
}

// Close closes both Redis clients
func (r *RedisDB) Close() error {
	err := r.closeClients()

	if r.logger != nil {
		r.logger.Info("Redis connections closed")
	}
	if r.metrics != nil {
		r.metrics.RedisConnections.Set(0)
		r.metrics.UpdateDependencyHealth("redis", false)
	}
	return err
}

// Stats returns Redis connection pool statistics
func (r *RedisDB) Stats() map[string]interface{} {
	if r.client == nil {
		return map[string]interface{}{"status": "disconnected"}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"status":      "connected",
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
	}
}

// IsJWTRevoked reports whether the auth service has revoked the token id
func (r *RedisDB) IsJWTRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := r.authClient.Exists(ctx, "revoked:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check jwt revocation for jti %s: %w", jti, err)
	}
	return count > 0, nil
}

// metricsHook records every command issued through an instrumented client
type metricsHook struct {
	metrics *metrics.Metrics
}

func commandStatus(err error) string {
	if err == nil || errors.Is(err, redis.Nil) {
		return "success"
	}
	return "error"
}

func (h *metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.metrics.RecordRedisCommand(cmd.Name(), commandStatus(err), time.Since(start))
		return err
	}
}

func (h *metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.metrics.RecordRedisCommand("pipeline", commandStatus(err), time.Since(start))
		return err
	}
}
