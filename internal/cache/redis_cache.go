package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"bhasapos/backend/internal/domain"
)

const sessionKeyPrefix = "bhasapos:session:"

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(addr string, password string, db int) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSessionStore{client: client}
}

func (c *RedisSessionStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSessionStore) Close() error {
	return c.client.Close()
}

// Put stores the session until its expiry; redis drops it afterwards.
func (c *RedisSessionStore) Put(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	return c.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err()
}

func (c *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, bool, error) {
	val, err := c.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (c *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKeyPrefix+id).Err()
}
