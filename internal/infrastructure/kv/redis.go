package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const scanCount = 500

// RedisOptions configures NewRedisClient
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// RedisClient implements Client over go-redis. Atomic uses WATCH and MULTI/EXEC.
type RedisClient struct {
	client *redis.Client
}

var _ Client = (*RedisClient)(nil)

// NewRedisClient creates a Redis-backed client. The connection is lazy; call Ping to verify it.
func NewRedisClient(opts RedisOptions) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
			PoolSize: opts.PoolSize,
		}),
	}
}

// NewRedisClientFrom wraps an existing go-redis client
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// 1 HGetAll reads every field of a hash
func (c *RedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return redisReader{c: c.client}.HGetAll(ctx, key)
}

// 2 HGetAllMany reads many hashes in one pipeline
func (c *RedisClient) HGetAllMany(ctx context.Context, keys []string) ([]map[string]string, error) {
	return redisReader{c: c.client}.HGetAllMany(ctx, keys)
}

// 3 Get reads a string value
func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	return redisReader{c: c.client}.Get(ctx, key)
}

// 4 SMembers reads every member of a set
func (c *RedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	return redisReader{c: c.client}.SMembers(ctx, key)
}

// 5 SCard counts the members of a set
func (c *RedisClient) SCard(ctx context.Context, key string) (int64, error) {
	return redisReader{c: c.client}.SCard(ctx, key)
}

// 6 Exists reports whether a key is present
func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	return redisReader{c: c.client}.Exists(ctx, key)
}

// 7 ScanKeys walks the key space with SCAN MATCH instead of blocking KEYS
func (c *RedisClient) ScanKeys(ctx context.Context, prefix, substr string) ([]string, error) {
	pattern := EscapeGlob(prefix) + "*" + EscapeGlob(substr) + "*"
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, unavailable("scan", pattern, err)
		}
		for _, k := range keys {
			// MATCH also accepts the term inside the prefix; keep remainder-only hits
			if strings.Contains(k[len(prefix):], substr) {
				seen[k] = struct{}{}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// 8 Atomic watches keys, runs fn and commits its batch in MULTI/EXEC
func (c *RedisClient) Atomic(ctx context.Context, watch []string, fn TxFunc) error {
	var fnErr error
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		b := &Batch{}
		if fnErr = fn(ctx, redisReader{c: tx}, b); fnErr != nil {
			return fnErr
		}
		if b.Len() == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for _, o := range b.ops {
				applyRedis(ctx, p, o)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%w: exec: %w", ErrCommitUnknown, err)
		}
		return err
	}, watch...)

	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		return fnErr
	case errors.Is(err, redis.TxFailedErr):
		return ErrTxConflict
	case errors.Is(err, ErrCommitUnknown):
		return err
	default:
		return unavailable("watch", strings.Join(watch, ","), err)
	}
}

// 9 Ping checks connectivity
func (c *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", "", err)
	}
	return nil
}

// 10 PoolStats exposes the connection pool counters
func (c *RedisClient) PoolStats() *redis.PoolStats {
	return c.client.PoolStats()
}

// 11 Close releases the connection pool
func (c *RedisClient) Close() error {
	return c.client.Close()
}

func applyRedis(ctx context.Context, p redis.Pipeliner, o op) {
	switch o.kind {
	case opHSet:
		pairs := make([]interface{}, 0, len(o.fields)*2)
		for k, v := range o.fields {
			pairs = append(pairs, k, v)
		}
		p.HSet(ctx, o.key, pairs...)
	case opSAdd:
		p.SAdd(ctx, o.key, toArgs(o.members)...)
	case opSRem:
		p.SRem(ctx, o.key, toArgs(o.members)...)
	case opSet:
		p.Set(ctx, o.key, o.value, 0)
	case opDel:
		p.Del(ctx, o.keys...)
	}
}

// redisReader serves reads from either the pooled client or a WATCH transaction
type redisReader struct {
	c redis.Cmdable
}

func (r redisReader) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := r.c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable("hgetall", key, err)
	}
	return m, nil
}

func (r redisReader) HGetAllMany(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.StringStringMapCmd, len(keys))
	_, err := r.c.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("hgetall", fmt.Sprintf("%d keys", len(keys)), err)
	}
	out := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

func (r redisReader) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", key, err)
	}
	return v, true, nil
}

func (r redisReader) SMembers(ctx context.Context, key string) ([]string, error) {
	m, err := r.c.SMembers(ctx, key).Result()
	if err != nil {
		return nil, unavailable("smembers", key, err)
	}
	return m, nil
}

func (r redisReader) SCard(ctx context.Context, key string) (int64, error) {
	n, err := r.c.SCard(ctx, key).Result()
	if err != nil {
		return 0, unavailable("scard", key, err)
	}
	return n, nil
}

func (r redisReader) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.c.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable("exists", key, err)
	}
	return n > 0, nil
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, key, err)
}

// EscapeGlob quotes the Redis glob metacharacters in s
func EscapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
