package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: im:presence:<user>
// Hash fields: online ("1"/"0"), last_active (unix ms).
func presenceKey(user string) string { return "im:presence:" + user }

// RedisStore is the durable presence record, upserted lazily on first
// contact.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) SetOnline(ctx context.Context, userID string, at time.Time) error {
	return s.rdb.HSet(ctx, presenceKey(userID),
		"online", "1",
		"last_active", strconv.FormatInt(at.UnixMilli(), 10),
	).Err()
}

func (s *RedisStore) SetOffline(ctx context.Context, userID string, lastActive time.Time) error {
	return s.rdb.HSet(ctx, presenceKey(userID),
		"online", "0",
		"last_active", strconv.FormatInt(lastActive.UnixMilli(), 10),
	).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID string) (Record, bool, error) {
	vals, err := s.rdb.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, false, err
	}
	if len(vals) == 0 {
		return Record{}, false, nil
	}
	rec := Record{Online: vals["online"] == "1"}
	if ms, err := strconv.ParseInt(vals["last_active"], 10, 64); err == nil {
		rec.LastActive = time.UnixMilli(ms)
	}
	return rec, true, nil
}
