package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a single shared redis connection pool.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the redis server at addr ("host:port") and verifies
// the connection with a ping.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	r := &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:       addr,
			MaxRetries: -1,
		}),
	}

	if err := r.Ping(ctx); err != nil {
		_ = r.client.Close()
		return nil, err
	}

	return r, nil
}

// HGet returns ErrMissing when the field is absent.
func (r *Redis) HGet(ctx context.Context, hash, field string) (string, error) {
	value, err := r.client.HGet(ctx, hash, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMissing
	}

	return value, unavailable("hget", err)
}

func (r *Redis) HSet(ctx context.Context, hash, field, value string) error {
	return unavailable("hset", r.client.HSet(ctx, hash, field, value).Err())
}

func (r *Redis) HDel(ctx context.Context, hash, field string) error {
	return unavailable("hdel", r.client.HDel(ctx, hash, field).Err())
}

func (r *Redis) HLen(ctx context.Context, hash string) (int64, error) {
	n, err := r.client.HLen(ctx, hash).Result()

	return n, unavailable("hlen", err)
}

func (r *Redis) Ping(ctx context.Context) error {
	return unavailable("ping", r.client.Ping(ctx).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Monitor pings the store every interval until ctx is done. The first failed
// ping is sent on the returned channel, after which monitoring stops.
func Monitor(ctx context.Context, s Store, interval time.Duration) <-chan error {
	errc := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Ping(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					errc <- err
					return
				}
			}
		}
	}()

	return errc
}
