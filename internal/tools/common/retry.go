package common

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/workspace-mcp/internal/auth"
)

const (
	retryInitialInterval = 250 * time.Millisecond
	retryMaxTries        = 3
)

// RetryTransient runs op, retrying with exponential backoff when it fails
// with a transient credential error. Any other error stops the retry loop
// immediately.
func RetryTransient[T any](ctx context.Context, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval

	return backoff.Retry(ctx, func() (T, error) {
		result, err := op()
		if err != nil && !auth.IsCode(err, auth.CodeRefreshTransient) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(retryMaxTries))
}
