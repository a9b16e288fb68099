package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/torfstack/cdnfs/internal/logging"
)

const defaultMaxElapsed = 30 * time.Second

// WithRetry wraps s so that transient faults are retried with bounded
// exponential backoff. ErrNotFound and context cancellation are returned
// immediately; everything else is assumed transient until the backoff
// budget is exhausted.
func WithRetry(s Store) Store {
	return &retryStore{inner: s, maxElapsed: defaultMaxElapsed}
}

type retryStore struct {
	inner      Store
	maxElapsed time.Duration
}

func (r *retryStore) retry(ctx context.Context, op string, f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.maxElapsed
	attempt := 0
	return backoff.Retry(
		func() error {
			attempt++
			err := f()
			switch {
			case err == nil:
				return nil
			case errors.Is(err, ErrNotFound):
				return backoff.Permanent(err)
			case ctx.Err() != nil:
				return backoff.Permanent(err)
			}
			logging.Debugf("Retrying %s after attempt %d: %s", op, attempt, err)
			return err
		}, backoff.WithContext(b, ctx),
	)
}

func (r *retryStore) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := r.retry(ctx, "exists", func() error {
		var errGo error
		ok, errGo = r.inner.Exists(ctx, key)
		return errGo
	})
	return ok, err
}

func (r *retryStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	return r.retry(ctx, "put", func() error {
		return r.inner.Put(ctx, key, data, opts)
	})
}

func (r *retryStore) Get(ctx context.Context, key string) (Object, error) {
	var obj Object
	err := r.retry(ctx, "get", func() error {
		var errGo error
		obj, errGo = r.inner.Get(ctx, key)
		return errGo
	})
	return obj, err
}

func (r *retryStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.retry(ctx, "list", func() error {
		var errGo error
		keys, errGo = r.inner.List(ctx, prefix)
		return errGo
	})
	return keys, err
}
