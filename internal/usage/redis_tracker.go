package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	pkglog "github.com/jobradar/search-service/pkg/log"
)

// Counters are kept two full months so the previous month stays inspectable
// after the boundary reset.
const counterRetention = 62 * 24 * time.Hour

// RedisConfig holds connection settings for the usage counters.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RedisTracker keeps the monthly counters in Redis: a plain counter for the
// total plus per-keyword and per-date hashes, all keyed by month.
type RedisTracker struct {
	client *redis.Client
	prefix string
	limits Limits

	now func() time.Time
}

// NewRedisTracker connects and verifies the Redis backing the counters.
func NewRedisTracker(cfg RedisConfig, prefix string, limits Limits) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if limits.Monthly <= 0 {
		limits = DefaultLimits()
	}

	return &RedisTracker{
		client: client,
		prefix: prefix,
		limits: limits,
		now:    time.Now,
	}, nil
}

// Close releases the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

func (t *RedisTracker) totalKey(month string) string {
	return fmt.Sprintf("%s:%s:total", t.prefix, month)
}

func (t *RedisTracker) keywordKey(month string) string {
	return fmt.Sprintf("%s:%s:keywords", t.prefix, month)
}

func (t *RedisTracker) dateKey(month string) string {
	return fmt.Sprintf("%s:%s:dates", t.prefix, month)
}

// Allow checks the current month's counter against the hard threshold.
func (t *RedisTracker) Allow(ctx context.Context) (Decision, error) {
	used, err := t.client.Get(ctx, t.totalKey(MonthKey(t.now()))).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Decision{}, fmt.Errorf("failed to read usage counter: %w", err)
	}

	return t.limits.Decide(used), nil
}

// Record counts one upstream call. Crossing the warn threshold logs once per
// month by construction (the counter passes each value exactly once).
func (t *RedisTracker) Record(ctx context.Context, keyword string) error {
	now := t.now()
	month := MonthKey(now)

	pipe := t.client.TxPipeline()
	total := pipe.Incr(ctx, t.totalKey(month))
	pipe.HIncrBy(ctx, t.dateKey(month), DateKey(now), 1)
	if keyword != "" {
		pipe.HIncrBy(ctx, t.keywordKey(month), keyword, 1)
	}
	pipe.Expire(ctx, t.totalKey(month), counterRetention)
	pipe.Expire(ctx, t.dateKey(month), counterRetention)
	pipe.Expire(ctx, t.keywordKey(month), counterRetention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	used := total.Val()
	l := pkglog.L()
	switch {
	case used == t.limits.Warn:
		l.Warn().Int64("used", used).Int64("limit", t.limits.Monthly).
			Msg("API usage reached warn threshold")
	case used == t.limits.Hard:
		l.Error().Int64("used", used).Int64("limit", t.limits.Monthly).
			Msg("API usage reached hard threshold, further calls blocked")
	}

	return nil
}

// Stats reports the current month's counters.
func (t *RedisTracker) Stats(ctx context.Context) (Stats, error) {
	month := MonthKey(t.now())

	used, err := t.client.Get(ctx, t.totalKey(month)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Stats{}, fmt.Errorf("failed to read usage counter: %w", err)
	}

	byKeyword, err := t.readHash(ctx, t.keywordKey(month))
	if err != nil {
		return Stats{}, err
	}
	byDate, err := t.readHash(ctx, t.dateKey(month))
	if err != nil {
		return Stats{}, err
	}

	remaining := t.limits.Monthly - used
	if remaining < 0 {
		remaining = 0
	}

	return Stats{
		Month:       month,
		Used:        used,
		Remaining:   remaining,
		Limit:       t.limits.Monthly,
		PercentUsed: float64(used) / float64(t.limits.Monthly) * 100,
		WarnReached: used >= t.limits.Warn,
		HardReached: used >= t.limits.Hard,
		ByKeyword:   byKeyword,
		ByDate:      byDate,
	}, nil
}

func (t *RedisTracker) readHash(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read usage hash %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
