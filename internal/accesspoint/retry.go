package accesspoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/navikt/ehandelkanal-2/pkg/errmsg"
)

// Policy bounds a retried operation: at most Attempts tries, sleeping
// InitialDelay after the first failure and doubling up to MaxDelay.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Retry runs fn under the policy. Errors that cannot succeed on retry
// (client request errors, parse and validation failures) abort immediately;
// so does context cancellation. The last error is returned when the attempt
// budget runs out.
func Retry(ctx context.Context, logger *slog.Logger, p Policy, op string, fn func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	delay := p.InitialDelay
	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errmsg.Retryable(err) {
			return err
		}
		if attempt == p.Attempts {
			break
		}
		logger.Warn("operation failed, retrying",
			"operation", op,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s aborted: %w", op, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, p.Attempts, err)
}
