package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fa993/rama/internal/proxydb"
)

// RedisReader drains a Redis list of JSON-encoded proxy rows, for
// deployments where another service feeds the pool instead of a file.
// Each element is one rowRecord object; the list is consumed destructively
// from the left.
type RedisReader struct {
	client *redis.Client
	key    string
}

func NewRedisReader(client *redis.Client, key string) *RedisReader {
	return &RedisReader{client: client, key: key}
}

// Next pops the next row, or returns (nil, nil) once the list is empty.
func (r *RedisReader) Next(ctx context.Context) (*proxydb.Proxy, error) {
	raw, err := r.client.LPop(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop proxy row from %s: %w", r.key, err)
	}

	var row rowRecord
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("decode proxy row from %s: %w", r.key, err)
	}
	return row.toProxy()
}
