// Package cache provides the debounce cache that short-circuits repeated
// searches for the same title and city.
package cache

import (
	"context"
	"strings"
	"time"
)

// TTL is how long a stored result stays valid.
const TTL = 60 * time.Second

// Cache stores one value per normalized title:city key. A miss and a stale
// entry look the same to callers.
type Cache[T any] interface {
	Get(ctx context.Context, title, city string) (T, bool)
	Put(ctx context.Context, title, city string, value T)
}

// Key returns the normalized cache key for a search.
func Key(title, city string) string {
	return strings.ToLower(strings.TrimSpace(title)) + ":" + strings.ToLower(strings.TrimSpace(city))
}

// Clock returns the current time. Tests replace it to control expiry.
type Clock func() time.Time

// Nop is a cache that never hits.
type Nop[T any] struct{}

func (Nop[T]) Get(context.Context, string, string) (T, bool) {
	var zero T
	return zero, false
}

func (Nop[T]) Put(context.Context, string, string, T) {}
