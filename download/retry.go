package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrAttemptsExhausted is returned by Retry when every attempt timed out.
	ErrAttemptsExhausted = errors.New("no response after all attempts")

	// ErrStopped is returned by Retry when ctx is done before a retry.
	ErrStopped = errors.New("stopped before retry")
)

// Retry calls fn up to attempts times. Each call receives a context bounded
// by timeout but detached from ctx's cancellation, so a started attempt runs
// to completion. A call that fails with a timeout is retried immediately,
// unless ctx is done by then; any other outcome, success or failure, is
// returned as-is.
func Retry(ctx context.Context, attempts int, timeout time.Duration, fn func(ctx context.Context) error) error {
	attemptOnce := func() error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		return fn(ctx)
	}

	for i := 1; i <= attempts; i++ {
		if i > 1 && ctx.Err() != nil {
			return ErrStopped
		}

		err := attemptOnce()
		if err == nil || !IsTimeout(err) {
			return err
		}

		log.Warnf("attempt %d/%d timed out", i, attempts)
	}

	return fmt.Errorf("%w: attempts=%d", ErrAttemptsExhausted, attempts)
}
