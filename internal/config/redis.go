package config

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

// GetRedis returns nil when Redis is not configured; callers fall back to
// in-process implementations.
func GetRedis() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// ConnectRedisWithRetry tries a few times with capped backoff and gives up
// quietly: Redis is optional for this service.
func ConnectRedisWithRetry(ctx context.Context, env Env, attempts int) bool {
	if env.RedisAddr == "" {
		return false
	}
	logger := GetLogger()
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:     env.RedisAddr,
			PoolSize: 50,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			rdb = client
			locker = redislock.New(client)
			logger.WithField("addr", env.RedisAddr).WithField("attempt", attempt).Info("connected to redis")
			return true
		}
		_ = client.Close()

		sleep := time.Second * time.Duration(1<<min(attempt, 4))
		logger.WithField("addr", env.RedisAddr).WithField("attempt", attempt).Warnf("redis unavailable: %v; retrying in %s", err, sleep)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(sleep):
		}
	}
	logger.WithField("addr", env.RedisAddr).Warn("giving up on redis; using in-memory cache")
	return false
}

func CloseRedis() {
	if rdb != nil {
		_ = rdb.Close()
		rdb = nil
		locker = nil
	}
}
