package sessionstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"driver-portal/internal/domain/session"
)

// Redis keeps one device's session under "<prefix>:<device>:<key>".
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix, deviceID string) *Redis {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = "portal"
	}
	return &Redis{client: client, prefix: prefix + ":" + deviceID + ":"}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context) (session.Session, error) {
	keys := session.Keys()
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return session.Session{}, fmt.Errorf("redis mget session: %w", err)
	}

	values := make(map[string]string, len(keys))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			values[keys[i]] = s
		}
	}
	return session.FromValues(values), nil
}

// Save replaces all three keys in one MULTI/EXEC; empty values delete their key.
func (r *Redis) Save(ctx context.Context, s session.Session) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range s.Values() {
			if v == "" {
				pipe.Del(ctx, r.key(k))
				continue
			}
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	keys := session.Keys()
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
