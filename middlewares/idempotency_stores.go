package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"invoicing-backend/models"
)

// MemoryIdempotencyStore is the single-process default.
type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	recs map[string]*models.IdempotencyKey
	ttl  time.Duration
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{recs: make(map[string]*models.IdempotencyKey), ttl: ttl}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, rec *models.IdempotencyKey) (*models.IdempotencyKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.recs[rec.Key]; ok {
		if s.ttl <= 0 || time.Since(existing.CreatedAt) <= s.ttl {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *rec
	s.recs[rec.Key] = &cp
	return nil, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, status int, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[key]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	rec.ResponseStatus = status
	rec.ContentType = contentType
	rec.ResponseBody = body
	rec.CompletedAt = &now
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.recs[key]; ok && !rec.Completed() {
		delete(s.recs, key)
	}
	return nil
}

// RedisIdempotencyStore shares records between instances. Each record is a
// JSON value under "idempotency:<key>" that expires after ttl.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func redisKey(key string) string { return "idempotency:" + key }

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, rec *models.IdempotencyKey) (*models.IdempotencyKey, error) {
	blob, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, redisKey(rec.Key), blob, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	return s.get(ctx, rec.Key)
}

func (s *RedisIdempotencyStore) get(ctx context.Context, key string) (*models.IdempotencyKey, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		return nil, err
	}
	var rec models.IdempotencyKey
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, status int, contentType string, body []byte) error {
	rec, err := s.get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.ResponseStatus = status
	rec.ContentType = contentType
	rec.ResponseBody = body
	rec.CompletedAt = &now

	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(key), blob, redis.KeepTTL).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	rec, err := s.get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Completed() {
		return nil
	}
	return s.client.Del(ctx, redisKey(key)).Err()
}
