package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flow:session:"

// RedisStore keeps one session per user under flow:session:<user id>.
// Every save refreshes the TTL.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID uint64) string { return keyPrefix + strconv.FormatUint(userID, 10) }

// Load returns the stored session of userID.  ok is false when none
// exists or it expired.
func (s *RedisStore) Load(ctx context.Context, userID uint64) (sess Session, ok bool, err error) {
	b, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	if sess.UserID != userID {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Save stores sess under its user.
func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.UserID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete drops the session of userID.
func (s *RedisStore) Delete(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}
