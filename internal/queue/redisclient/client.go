package redisclient

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity; used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// AddIfAbsent inserts member with score unless it is already in the set, so
// the first timestamp a member was seen with is kept.
func (c *Client) AddIfAbsent(ctx context.Context, set, member string, score float64) error {
	return c.redisdb.ZAddNX(ctx, set, redis.Z{Score: score, Member: member}).Err()
}

// Rescore updates the score of an existing member and never adds one.
func (c *Client) Rescore(ctx context.Context, set, member string, score float64) error {
	return c.redisdb.ZAddXX(ctx, set, redis.Z{Score: score, Member: member}).Err()
}

func (c *Client) Remove(ctx context.Context, set string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.redisdb.ZRem(ctx, set, args...).Err()
}

// ScoredBelow returns up to limit members whose score is <= max, oldest first.
func (c *Client) ScoredBelow(ctx context.Context, set string, max float64, limit int64) ([]string, error) {
	return c.redisdb.ZRangeByScore(ctx, set, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatFloat(max, 'f', -1, 64),
		Count: limit,
	}).Result()
}
