package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/Plantigo/plantigo-backend/pkg/queue"
)

// NewQueue creates a Redis list backed intake queue under the given key.
func NewQueue(client *redis.Client, key string) queue.Queue {
	return &redisQueue{
		client: client,
		key:    key,
	}
}

// Connect opens a Redis client and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Redis URL")
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return client, nil
}

type redisQueue struct {
	client *redis.Client
	key    string
}

func (q *redisQueue) Length(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read queue length")
	}

	return n, nil
}

func (q *redisQueue) PeekRange(ctx context.Context, n int64) ([][]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := q.client.LRange(ctx, q.key, 0, n-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to peek queue entries")
	}

	entries := make([][]byte, 0, len(values))
	for _, v := range values {
		entries = append(entries, []byte(v))
	}

	return entries, nil
}

func (q *redisQueue) PopFront(ctx context.Context) error {
	if err := q.client.LPop(ctx, q.key).Err(); err != nil && err != redis.Nil {
		return errors.Wrap(err, "failed to pop queue entry")
	}

	return nil
}

func (q *redisQueue) Push(ctx context.Context, entry []byte) error {
	if err := q.client.RPush(ctx, q.key, entry).Err(); err != nil {
		return errors.Wrap(err, "failed to push queue entry")
	}

	return nil
}
