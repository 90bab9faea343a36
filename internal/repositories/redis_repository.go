package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Successfully connected to Redis")
	return client, nil

}

// RateLimiter is a sliding-window limiter over redis sorted sets.
type RateLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	now         func() time.Time
}

func NewRateLimiter(client *redis.Client, cfg config.RateConfig) *RateLimiter {
	return &RateLimiter{client: client, maxAttempts: cfg.MaxAttempts, window: cfg.WindowSize, now: time.Now}
}

// Allow returns isAllowed, attempts left, seconds to wait, error
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	redisKey := "rate_limit:" + key

	now := r.now()
	windowStart := now.Add(-r.window).UnixMilli()

	pipe := r.client.TxPipeline()

	// drop attempts that fell out of the window
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))

	// members must be unique or attempts within the same millisecond collapse
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})

	count := pipe.ZCard(ctx, redisKey)

	pipe.Expire(ctx, redisKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", redisKey), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts > r.maxAttempts {
		scores, err := r.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err != nil || len(scores) == 0 {
			return false, 0, int(r.window.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldest := time.UnixMilli(int64(scores[0].Score))
		retryAfter := max(int(oldest.Add(r.window).Sub(now).Seconds()), 1)

		logger.Warn("Rate limit exceeded", slog.String("key", key), slog.Int64("attempts", attempts))
		return false, 0, retryAfter, nil
	}

	return true, int(r.maxAttempts - attempts), 0, nil
}
