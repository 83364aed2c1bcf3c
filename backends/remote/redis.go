// Package remote provides the shared Redis tier of the vector cache.
package remote

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/types"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultPrefix       = "projectmatch:vec:"
	defaultDialTimeout  = 250 * time.Millisecond
	defaultReadTimeout  = 100 * time.Millisecond
	defaultWriteTimeout = 100 * time.Millisecond
	breakerName         = "redis-vector-cache"
)

// RedisBackend implements VectorBackend on plain Redis strings holding
// little-endian float32 vectors. Every call goes through a circuit breaker so
// an unavailable server fails fast instead of stalling callers.
type RedisBackend struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[any]
}

// parseRedisURL parses a Redis URL and returns redis.Options
func parseRedisURL(connectionString string) (*redis.Options, error) {
	// Handle redis:// or rediss:// URLs
	if strings.HasPrefix(connectionString, "redis://") || strings.HasPrefix(connectionString, "rediss://") {
		parsedURL, err := url.Parse(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}

		opts := &redis.Options{
			Addr: parsedURL.Host,
		}

		if parsedURL.Scheme == "rediss" {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		if parsedURL.User != nil {
			opts.Username = parsedURL.User.Username()
			if password, ok := parsedURL.User.Password(); ok {
				opts.Password = password
			}
		}

		// Extract database number from path
		if parsedURL.Path != "" && parsedURL.Path != "/" {
			dbStr := strings.TrimPrefix(parsedURL.Path, "/")
			if db, err := strconv.Atoi(dbStr); err == nil {
				opts.DB = db
			}
		}

		return opts, nil
	}

	// For simple address format (host:port), return minimal options
	return &redis.Options{
		Addr: connectionString,
	}, nil
}

// NewRedisBackend creates a new Redis backend and verifies the connection.
func NewRedisBackend(config types.BackendConfig) (*RedisBackend, error) {
	opts, err := parseRedisURL(config.ConnectionString)
	if err != nil {
		return nil, err
	}

	// Override with explicit config values if provided
	if config.Username != "" {
		opts.Username = config.Username
	}
	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.Database != 0 {
		opts.DB = config.Database
	}

	opts.DialTimeout = orDefault(config.DialTimeout, defaultDialTimeout)
	opts.ReadTimeout = orDefault(config.ReadTimeout, defaultReadTimeout)
	opts.WriteTimeout = orDefault(config.WriteTimeout, defaultWriteTimeout)
	opts.MaxRetries = 1

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout+opts.ReadTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: failed to connect to Redis: %w", types.ErrCacheBackend, err)
	}

	return newRedisBackendWithClient(client, config), nil
}

func newRedisBackendWithClient(client *redis.Client, config types.BackendConfig) *RedisBackend {
	prefix := config.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	m := config.Metrics
	if m == nil {
		m = metrics.Default()
	}
	m.BreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			m.BreakerState.WithLabelValues(breakerName).Set(float64(to))
		},
	})

	return &RedisBackend{
		client:  client,
		prefix:  prefix,
		ttl:     config.TTL,
		breaker: breaker,
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// keyString converts a key to a Redis key string
func (b *RedisBackend) keyString(key string) string {
	return b.prefix + key
}

func (b *RedisBackend) expiry(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return b.ttl
}

// encodeVector converts a float32 slice to little-endian bytes for Redis storage
func encodeVector(vec types.Vector) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector
func decodeVector(buf []byte) (types.Vector, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector payload of %d bytes", len(buf))
	}
	vec := make(types.Vector, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : (i+1)*4]))
	}
	return vec, nil
}

// execute runs fn through the circuit breaker and tags failures with ErrCacheBackend
func (b *RedisBackend) execute(op string, fn func() (any, error)) (any, error) {
	res, err := b.breaker.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: redis %s: %w", types.ErrCacheBackend, op, err)
	}
	return res, nil
}

// Get retrieves a vector from Redis
func (b *RedisBackend) Get(ctx context.Context, key string) (types.Vector, bool, error) {
	res, err := b.execute("get", func() (any, error) {
		raw, err := b.client.Get(ctx, b.keyString(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return raw, err
	})
	if err != nil {
		return nil, false, err
	}

	raw, _ := res.([]byte)
	if raw == nil {
		return nil, false, nil
	}

	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", types.ErrCacheBackend, err)
	}
	return vec, true, nil
}

// Set stores a vector with SET ... EX
func (b *RedisBackend) Set(ctx context.Context, key string, vec types.Vector, ttl time.Duration) error {
	_, err := b.execute("set", func() (any, error) {
		return nil, b.client.Set(ctx, b.keyString(key), encodeVector(vec), b.expiry(ttl)).Err()
	})
	return err
}

// GetBatch retrieves several vectors with a single MGET
func (b *RedisBackend) GetBatch(ctx context.Context, keys []string) (map[string]types.Vector, error) {
	if len(keys) == 0 {
		return map[string]types.Vector{}, nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = b.keyString(key)
	}

	res, err := b.execute("mget", func() (any, error) {
		return b.client.MGet(ctx, redisKeys...).Result()
	})
	if err != nil {
		return nil, err
	}

	values, _ := res.([]any)
	found := make(map[string]types.Vector, len(keys))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		vec, err := decodeVector([]byte(raw))
		if err != nil {
			continue
		}
		found[keys[i]] = vec
	}
	return found, nil
}

// SetBatch stores several vectors in one pipeline
func (b *RedisBackend) SetBatch(ctx context.Context, entries map[string]types.Vector, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	expiry := b.expiry(ttl)
	_, err := b.execute("pipeline_set", func() (any, error) {
		_, err := b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, vec := range entries {
				pipe.Set(ctx, b.keyString(key), encodeVector(vec), expiry)
			}
			return nil
		})
		return nil, err
	})
	return err
}

// Delete removes a vector from Redis
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	_, err := b.execute("del", func() (any, error) {
		return nil, b.client.Del(ctx, b.keyString(key)).Err()
	})
	return err
}

// scanKeys collects every key with our prefix using SCAN
func (b *RedisBackend) scanKeys(ctx context.Context) ([]string, error) {
	pattern := b.prefix + "*"
	var keys []string
	var cursor uint64

	for {
		result, nextCursor, err := b.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}

		keys = append(keys, result...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// Flush clears all entries with the configured prefix from Redis
func (b *RedisBackend) Flush(ctx context.Context) error {
	_, err := b.execute("flush", func() (any, error) {
		keys, err := b.scanKeys(ctx)
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			return nil, b.client.Del(ctx, keys...).Err()
		}
		return nil, nil
	})
	return err
}

// Len returns the number of entries in Redis with our prefix
func (b *RedisBackend) Len(ctx context.Context) (int, error) {
	res, err := b.execute("len", func() (any, error) {
		keys, err := b.scanKeys(ctx)
		return len(keys), err
	})
	if err != nil {
		return 0, err
	}
	count, _ := res.(int)
	return count, nil
}

// Close closes the Redis connection
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
