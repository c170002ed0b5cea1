// README: Alert dedup store backed by Redis keys with a TTL.
package matching

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"parcelway/internal/types"
)

const alertKeyPrefix = "matching:alert:%s:%s"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// MarkAlerted records that the parcel's sender was told about the trip.
// It reports false when the pair was already recorded.
func (s *Store) MarkAlerted(ctx context.Context, tripID, parcelID types.ID) (bool, error) {
	return s.redis.SetNX(ctx, alertKey(tripID, parcelID), "1", alertTTL).Result()
}

// Forget drops the record so the next sweep retries the alert.
func (s *Store) Forget(ctx context.Context, tripID, parcelID types.ID) error {
	return s.redis.Del(ctx, alertKey(tripID, parcelID)).Err()
}

func alertKey(tripID, parcelID types.ID) string {
	return fmt.Sprintf(alertKeyPrefix, string(tripID), string(parcelID))
}
