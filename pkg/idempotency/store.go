package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a SetNX-backed seen-marker. It is advisory: callers still rely on
// the database compare-and-set as the authoritative dedupe.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// CallbackKey identifies one gateway payment callback delivery.
func (s *Store) CallbackKey(orderRef, paymentRef string) string {
	return fmt.Sprintf("callback:%s:%s", orderRef, paymentRef)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
