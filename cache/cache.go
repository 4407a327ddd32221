// Package cache provides the expiring key-value store that fronts catalog
// queries. Values are JSON-encoded; entries are best-effort and
// last-write-wins, consumers must tolerate stale reads until expiry.
package cache

import (
	"context"
	"time"
)

const (
	ListingTTL  = time.Hour
	MetadataTTL = 2 * time.Hour
)

type Cache interface {
	// Get unmarshals the value stored under key into dest and reports
	// whether the key was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores val under key for the given lifetime.
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
}
