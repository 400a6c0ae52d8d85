package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis configures a Redis client using the supplied URL.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps the session under two keys so several consoles on
// different hosts can share a login.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a store using keys "<prefix>:token" and "<prefix>:user".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gema:admin:session"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + ":" + name
}

func (r *RedisStore) Load(ctx context.Context) (Data, error) {
	values, err := r.client.MGet(ctx, r.key(KeyToken), r.key(KeyUser)).Result()
	if err != nil {
		return Data{}, fmt.Errorf("load session: %w", err)
	}

	var data Data
	if token, ok := values[0].(string); ok {
		data.Token = token
	}
	if user, ok := values[1].(string); ok && user != "" {
		data.User = []byte(user)
	}
	return data, nil
}

func (r *RedisStore) Save(ctx context.Context, data Data) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(KeyToken), data.Token, 0)
	if len(data.User) > 0 {
		pipe.Set(ctx, r.key(KeyUser), string(data.User), 0)
	} else {
		pipe.Del(ctx, r.key(KeyUser))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(KeyToken), r.key(KeyUser)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
