package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis server. All failures are logged and
// reported as misses so an unavailable Redis slows requests down instead of
// failing them.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis at url (redis://host:port/db) and verifies
// the connection.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) GetJSON(ctx context.Context, key string, v any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("cache: get %s failed: %v", key, err)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("cache: discarding unreadable entry %s: %v", key, err)
		return false
	}
	return true
}

func (r *Redis) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: not storing %s: %v", key, err)
		return
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func (r *Redis) GetVector(ctx context.Context, key string) ([]float32, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: get %s failed: %v", key, err)
		return nil, false
	}
	vec, err := decodeVector(data)
	if err != nil {
		log.Printf("cache: discarding unreadable vector %s: %v", key, err)
		return nil, false
	}
	return vec, true
}

func (r *Redis) SetVector(ctx context.Context, key string, vec []float32, ttl time.Duration) {
	if err := r.client.Set(ctx, key, encodeVector(vec), ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector payload of %d bytes is not float32 aligned", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
