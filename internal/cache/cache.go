package cache

import (
	"context"
	"time"

	"budgetbook/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches whose entries expire
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically removes expired entries from caches
type Janitor struct {
	caches []Cleaner
}

// NewJanitor creates a janitor for caches
func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches}
}

// Sweep cleans every cache once and returns the number of removed entries
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval until ctx is done
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentCache)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				logger.DebugContext(ctx, "Expired cache entries removed", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
