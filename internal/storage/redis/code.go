package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaprio/auth-service/internal/storage"
)

const codeKeyPrefix = "verify:"

// CodeStorage keeps pending email verification codes in Redis with a TTL.
type CodeStorage struct {
	client *redis.Client
}

func NewCodeStorage(client *redis.Client) *CodeStorage {
	return &CodeStorage{client: client}
}

func (s *CodeStorage) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKeyPrefix+email, code, ttl).Err()
}

func (s *CodeStorage) GetCode(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, codeKeyPrefix+email).Result()
	if err == redis.Nil {
		return "", storage.ErrCodeNotFound
	} else if err != nil {
		return "", err
	}
	return code, nil
}

func (s *CodeStorage) DeleteCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, codeKeyPrefix+email).Err()
}
