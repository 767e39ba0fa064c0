// Package cache memoizes successful query results keyed by statement text,
// with a time-to-live. Failures are never cached; a stale or absent key makes
// the caller fall through to execution.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

// DefaultTTL is how long an entry stays fresh unless configured otherwise.
const DefaultTTL = 600 * time.Second

// Config holds cache configuration. When RedisURL is set the cache is backed
// by Redis, otherwise by process memory.
type Config struct {
	TTL           time.Duration `yaml:"ttl"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
}

// Store is a TTL-bounded result cache. Implementations must be safe for
// concurrent use; simultaneous writes to the same key are last-writer-wins.
type Store interface {
	// Get returns the cached result for key, or found=false on a miss or
	// stale entry.
	Get(ctx context.Context, key string) (result *domain.QueryResult, found bool, err error)
	// Put stores a successful result under key.
	Put(ctx context.Context, key string, result *domain.QueryResult) error
	Close() error
}

// Key builds the cache key from the exact statement text plus a canonical
// serialization of the parameters. No whitespace or case normalization is
// performed: correctness favors exactness over hit rate.
func Key(query string, params map[string]any) string {
	if len(params) == 0 {
		return query
	}
	// json.Marshal sorts map keys, so equal parameter sets serialize equally.
	encoded, err := json.Marshal(params)
	if err != nil {
		// Unencodable params never match anything; the entry is simply unreachable.
		return query + "|!"
	}
	return query + "|" + string(encoded)
}
