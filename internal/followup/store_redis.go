package followup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisReminderKey = "followup:reminders"

// RedisStore keeps reminders in a sorted set scored by scheduled time, so a
// future notifier can pop due reminders cheaply.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Save(ctx context.Context, r Reminder) error {
	if s.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	return s.rdb.ZAdd(ctx, redisReminderKey, redis.Z{
		Score:  float64(r.ScheduledAt.Unix()),
		Member: raw,
	}).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]Reminder, error) {
	if s.rdb == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	raws, err := s.rdb.ZRange(ctx, redisReminderKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Reminder, 0, len(raws))
	for _, raw := range raws {
		var r Reminder
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
