package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/pkg/errors"
)

// KeyCache is an importer.ExistsChecker that answers canonical-key existence
// checks from Redis before falling back to a slower source (typically the
// molecule repository).  Only positive answers are cached: a key that is
// absent now may be persisted a moment later, but a persisted key never goes
// away.
type KeyCache struct {
	rdb      *redis.Client
	fallback importer.ExistsChecker
	prefix   string
	ttl      time.Duration
	logger   logging.Logger
}

var _ importer.ExistsChecker = (*KeyCache)(nil)

// NewKeyCache wraps fallback with a Redis existence cache.  A zero ttl keeps
// cached keys until Redis evicts them.
func NewKeyCache(rdb *redis.Client, fallback importer.ExistsChecker, prefix string, ttl time.Duration, logger logging.Logger) *KeyCache {
	return &KeyCache{
		rdb:      rdb,
		fallback: fallback,
		prefix:   prefix,
		ttl:      ttl,
		logger:   logger.Named("keycache"),
	}
}

// Exists reports whether canonicalKey is already persisted.  Cache failures
// degrade to the fallback rather than failing the check: the cache is an
// optimisation, not a source of truth.
func (c *KeyCache) Exists(ctx context.Context, canonicalKey string) (bool, error) {
	cacheKey := c.prefix + canonicalKey

	hit, err := c.rdb.Exists(ctx, cacheKey).Result()
	if err != nil {
		c.logger.Warn("cache lookup failed, falling back",
			logging.String("key", canonicalKey),
			logging.Err(err))
	} else if hit > 0 {
		return true, nil
	}

	exists, err := c.fallback.Exists(ctx, canonicalKey)
	if err != nil {
		return false, err
	}

	if exists {
		if serr := c.rdb.Set(ctx, cacheKey, 1, c.ttl).Err(); serr != nil {
			c.logger.Warn("cache store failed",
				logging.String("key", canonicalKey),
				logging.Err(serr))
		}
	}
	return exists, nil
}

// MarkPersisted records a freshly persisted canonical key so subsequent
// imports see the duplicate without a database round-trip.
func (c *KeyCache) MarkPersisted(ctx context.Context, canonicalKey string) error {
	if err := c.rdb.Set(ctx, c.prefix+canonicalKey, 1, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to mark key persisted")
	}
	return nil
}
