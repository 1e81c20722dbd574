package valkey

import (
	"context"
	"fmt"
	"time"

	valkey "github.com/redis/go-redis/v9"

	"github.com/uvensys/pchan/lib/store"
)

type Store struct {
	rdb *valkey.Client
}

func (s *Store) Set(ctx context.Context, key string, value []byte, expiry time.Duration) error {
	if _, err := s.rdb.Set(ctx, key, string(value), expiry).Result(); err != nil {
		return fmt.Errorf("can't set %q in valkey: %w", key, err)
	}

	return nil
}

// Take relies on GETDEL so that the read and the removal are a single
// operation on the server, preserving the exactly-one-taker guarantee
// across pchan instances.
func (s *Store) Take(ctx context.Context, key string) ([]byte, error) {
	result, err := s.rdb.GetDel(ctx, key).Result()
	if err != nil {
		if valkey.HasErrorPrefix(err, "redis: nil") {
			return nil, fmt.Errorf("%w: %w", store.ErrNotFound, err)
		}

		return nil, fmt.Errorf("can't fetch from valkey: %w", err)
	}

	return []byte(result), nil
}
