// Package kvstore abstracts the string-keyed blob storage backing the
// persisted cache tiers. Production uses Redis via gofiber/storage; tests
// use the in-memory implementation.
package kvstore

import (
	"time"

	"github.com/gofiber/storage/redis/v3"
)

// BlobStore is the minimal key-value contract the cache tiers need.
// Matches the shape of fiber.Storage so any gofiber/storage backend fits.
// Implementations must tolerate missing keys by returning (nil, nil).
type BlobStore interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Reset() error
	Close() error
}

// NewRedis creates a Redis-backed BlobStore from a redis:// URL.
func NewRedis(url string) BlobStore {
	return redis.New(redis.Config{
		URL:   url,
		Reset: false,
	})
}
