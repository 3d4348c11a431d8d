package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultKeyPrefix Redis key 前缀
const DefaultKeyPrefix = "directory:session:"

// RedisSessionRepo session blob 存在 Redis string 中，带 TTL
// 元数据（保存时间）放在同名 hash 里
type RedisSessionRepo struct {
	c      *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSessionRepo ttl 为 0 表示不过期
func NewRedisSessionRepo(c *redis.Client, ttl time.Duration) *RedisSessionRepo {
	return &RedisSessionRepo{c: c, prefix: DefaultKeyPrefix, ttl: ttl, now: time.Now}
}

var _ SessionRepo = (*RedisSessionRepo)(nil)

func (r *RedisSessionRepo) key(name string) string     { return r.prefix + name }
func (r *RedisSessionRepo) metaKey(name string) string { return r.prefix + "meta:" + name }

func (r *RedisSessionRepo) Save(ctx context.Context, name, blob string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(name), blob, r.ttl)
		p.HSet(ctx, r.metaKey(name), "updated_at", r.now().UTC().Format(time.RFC3339), "size", len(blob))
		if r.ttl > 0 {
			p.Expire(ctx, r.metaKey(name), r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session %q: %w", name, err)
	}
	return nil
}

func (r *RedisSessionRepo) Load(ctx context.Context, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	val, err := r.c.Get(ctx, r.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%q: %w", name, ErrSessionNotFound)
		}
		return "", fmt.Errorf("failed to load session %q: %w", name, err)
	}
	return val, nil
}

func (r *RedisSessionRepo) List(ctx context.Context) ([]SessionInfo, error) {
	keys, err := r.scanKeys(ctx, r.prefix+"meta:*")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]SessionInfo, 0, len(keys))
	for _, k := range keys {
		meta, err := r.c.HGetAll(ctx, k).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read session meta: %w", err)
		}
		info := SessionInfo{Name: strings.TrimPrefix(k, r.prefix+"meta:")}
		if t, err := time.Parse(time.RFC3339, meta["updated_at"]); err == nil {
			info.UpdatedAt = t
		}
		fmt.Sscanf(meta["size"], "%d", &info.Size)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RedisSessionRepo) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	n, err := r.c.Del(ctx, r.key(name), r.metaKey(name)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", name, ErrSessionNotFound)
	}
	return nil
}

func (r *RedisSessionRepo) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
