package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultLocationsKey is the redis key holding the saved locations list.
const DefaultLocationsKey = "weather-dashboard:saved-locations"

// maxWatchRetries bounds how often an update is replayed after a WATCH conflict.
const maxWatchRetries = 5

// ErrConcurrentUpdate is returned when the list kept changing under every retry.
var ErrConcurrentUpdate = errors.New("saved locations changed concurrently")

// RedisLocationStore keeps the saved locations list as one JSON value.
// Writes use WATCH/MULTI so concurrent edits never lose an update.
type RedisLocationStore struct {
	client *redis.Client
	key    string
}

func NewRedisLocationStore(client *redis.Client, key string) *RedisLocationStore {
	if key == "" {
		key = DefaultLocationsKey
	}
	return &RedisLocationStore{client: client, key: key}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisLocationStore) load(ctx context.Context, c stringGetter) ([]SavedLocation, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []SavedLocation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load saved locations: %w", err)
	}

	var list []SavedLocation
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode saved locations: %w", err)
	}
	return list, nil
}

func (s *RedisLocationStore) List(ctx context.Context) ([]SavedLocation, error) {
	return s.load(ctx, s.client)
}

func (s *RedisLocationStore) Add(ctx context.Context, loc SavedLocation) ([]SavedLocation, error) {
	return s.update(ctx, func(list []SavedLocation) ([]SavedLocation, error) {
		return appendLocation(list, loc)
	})
}

func (s *RedisLocationStore) Remove(ctx context.Context, index int) ([]SavedLocation, error) {
	return s.update(ctx, func(list []SavedLocation) ([]SavedLocation, error) {
		return removeLocation(list, index)
	})
}

func (s *RedisLocationStore) update(ctx context.Context, edit func([]SavedLocation) ([]SavedLocation, error)) ([]SavedLocation, error) {
	var result []SavedLocation

	err := retryOnConflict(ctx, maxWatchRetries, func() error {
		return s.client.Watch(ctx, func(tx *redis.Tx) error {
			list, err := s.load(ctx, tx)
			if err != nil {
				return err
			}

			next, err := edit(list)
			if err != nil {
				return err
			}

			data, err := json.Marshal(next)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.key, data, 0)
				return nil
			})
			if err == nil {
				result = next
			}
			return err
		}, s.key)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// retryOnConflict runs fn until it stops failing with redis.TxFailedErr.
func retryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	for i := 0; i < attempts; i++ {
		err := fn()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrConcurrentUpdate, attempts)
}

var (
	_ LocationStore = (*MemoryLocationStore)(nil)
	_ LocationStore = (*RedisLocationStore)(nil)
)
