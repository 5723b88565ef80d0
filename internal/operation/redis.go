package operation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"server/internal/domain"
)

const keyPrefix = "videoop:"

// RedisStore implements Store over Redis so operation state survives a
// process restart for the lifetime of the TTL. Same contract as MemoryStore;
// concurrent overwrites for one name are idempotent with respect to the
// provider's authoritative state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects using a Redis URL. A zero ttl keeps entries for 24h,
// comfortably longer than any legitimate video job.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Save(ctx context.Context, token domain.OperationToken) error {
	if !token.Valid() {
		return nil
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+token.Name, payload, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, name string) (domain.OperationToken, error) {
	payload, err := s.client.Get(ctx, keyPrefix+name).Bytes()
	if err == redis.Nil {
		return domain.OperationToken{}, errNotFound(name)
	}
	if err != nil {
		return domain.OperationToken{}, domain.Wrap(domain.KindTransient, "store_unavailable", err)
	}
	var token domain.OperationToken
	if err := json.Unmarshal(payload, &token); err != nil || !token.Valid() {
		return domain.OperationToken{}, errNotFound(name)
	}
	return token, nil
}

func (s *RedisStore) Update(ctx context.Context, token domain.OperationToken) error {
	return s.Save(ctx, token)
}

var _ Store = (*RedisStore)(nil)
