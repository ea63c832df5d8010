package cache

import (
	"time"
)

// CacheService stores rate-limit block keys for the offer source. When the
// source answers with a throttling status, a key with a TTL suppresses
// further requests until it expires.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
