package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"communityboard/pkg/apperr"
)

const (
	defaultRedisPrefix = "session:"
	// kept outside the token namespace so no cookie value can name an index
	defaultUserIndexPrefix = "session-user:"
)

type redisRecord struct {
	Values    Values    `json:"values"`
	ExpiresAt time.Time `json:"expiresAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RedisStore keeps sessions as keys with a native TTL. The expiry is also
// written into the payload so a lagging key eviction is never served.
//
// Every token is also added to a per-user set so DeleteByUser can find it.
// The set may hold tokens whose keys are already gone; those are skipped.
type RedisStore struct {
	Client          redis.Cmdable
	Prefix          string
	UserIndexPrefix string
	Now             func() time.Time
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{
		Client:          client,
		Prefix:          defaultRedisPrefix,
		UserIndexPrefix: defaultUserIndexPrefix,
		Now:             time.Now,
	}
}

func (s *RedisStore) key(token string) string {
	return s.Prefix + token
}

func (s *RedisStore) userKey(userID string) string {
	return s.UserIndexPrefix + userID
}

func (s *RedisStore) Get(ctx context.Context, token string) (Values, error) {
	data, err := s.Client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Values{}, ErrNotFound
	}
	if err != nil {
		return Values{}, apperr.Unavailable(fmt.Errorf("load session: %w", err))
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Values.IsZero() {
		return Values{}, ErrNotFound
	}
	if !rec.ExpiresAt.After(s.Now()) {
		return Values{}, ErrNotFound
	}
	return rec.Values, nil
}

func (s *RedisStore) Put(ctx context.Context, token string, values Values, ttl time.Duration) error {
	if values.IsZero() {
		return s.Delete(ctx, token)
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	now := s.Now()
	payload, err := json.Marshal(redisRecord{Values: values, ExpiresAt: now.Add(ttl), UpdatedAt: now})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(token), payload, ttl)
		if values.UserID != "" {
			// the newest session always lives longest, so its ttl covers the set
			pipe.SAdd(ctx, s.userKey(values.UserID), token)
			pipe.Expire(ctx, s.userKey(values.UserID), ttl)
		}
		return nil
	})
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("save session: %w", err))
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.Client.Del(ctx, s.key(token)).Err(); err != nil {
		return apperr.Unavailable(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID, exceptToken string) (int64, error) {
	index := s.userKey(userID)
	tokens, err := s.Client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("revoke sessions: %w", err))
	}

	var (
		keys    []string
		members []any
	)
	for _, token := range tokens {
		if token == exceptToken {
			continue
		}
		keys = append(keys, s.key(token))
		members = append(members, token)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var deleted *redis.IntCmd
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, index, members...)
		return nil
	})
	if err != nil {
		return 0, apperr.Unavailable(fmt.Errorf("revoke sessions: %w", err))
	}
	return deleted.Val(), nil
}
