package images

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Releaser deletes images that are no longer referenced. Deletion is
// retried with exponential backoff; the caller decides what to do with a
// final failure, usually just logging it.
type Releaser struct {
	store   Store
	retries uint64
	base    time.Duration
}

func NewReleaser(store Store, retries uint64, base time.Duration) *Releaser {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return &Releaser{store: store, retries: retries, base: base}
}

func (r *Releaser) Release(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	backoff := retry.WithMaxRetries(r.retries, retry.NewExponential(r.base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.store.Delete(ctx, key); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
