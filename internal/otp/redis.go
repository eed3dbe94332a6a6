package otp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key TTLs run past the logical expiry so a late verification attempt
// still gets the "expired" outcome instead of "not requested".
const expiryGrace = time.Hour

type redisRecord struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

// RedisRegistry stores codes in Redis so pending resets survive restarts and
// are shared across instances.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisRegistry(client *redis.Client, prefix string) *RedisRegistry {
	return &RedisRegistry{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *RedisRegistry) key(key string) string {
	return r.prefix + ":" + key
}

func (r *RedisRegistry) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	rec := redisRecord{
		Code:      code,
		ExpiresAt: r.now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode otp record: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), payload, ttl+expiryGrace).Err(); err != nil {
		return fmt.Errorf("failed to store otp record: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Consume(ctx context.Context, key, code string) error {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return ErrNotRequested
	}
	if err != nil {
		return fmt.Errorf("failed to load otp record: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to decode otp record: %w", err)
	}
	if r.now().Unix() > rec.ExpiresAt {
		_ = r.client.Del(ctx, r.key(key)).Err()
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return ErrMismatch
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove otp record: %w", err)
	}
	return nil
}
