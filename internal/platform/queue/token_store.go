package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore is the allow-list of live refresh token ids.
type TokenStore interface {
	Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	// Consume removes jti and returns its owner. ok is false when the id was
	// never issued, already rotated or expired.
	Consume(ctx context.Context, jti string) (userID int64, ok bool, err error)
	Revoke(ctx context.Context, jti string) error
}

const refreshKeyPrefix = "refresh_token:"

type RedisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKeyPrefix+jti, strconv.FormatInt(userID, 10), ttl).Err()
}

func (s *RedisTokenStore) Consume(ctx context.Context, jti string) (int64, bool, error) {
	raw, err := s.rdb.GetDel(ctx, refreshKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return userID, true, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, refreshKeyPrefix+jti).Err()
}

type memoryToken struct {
	userID  int64
	expires time.Time
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryTokenStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = memoryToken{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Consume(ctx context.Context, jti string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[jti]
	if !ok {
		return 0, false, nil
	}
	delete(s.tokens, jti)
	if !s.now().Before(tok.expires) {
		return 0, false, nil
	}
	return tok.userID, true, nil
}

func (s *MemoryTokenStore) Revoke(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, jti)
	return nil
}
