// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run checks immediately, then once per interval, until the check holds,
// the deadline or attempt budget is spent, or ctx is done.
// One goroutine per caller. No overlap.
func (p *Poller) Run(ctx context.Context) Result {
	if res := p.PollOnce(); res.Ready || res.Err != nil {
		return res
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{
				Name:    p.cfg.Name,
				At:      p.now(),
				Attempt: p.attempt,
				Err:     ctx.Err(),
			}
		case <-ticker.C:
			if res := p.PollOnce(); res.Ready || res.Err != nil {
				return res
			}
		}
	}
}

// Retry calls fn up to attempts times, sleeping interval between failures.
// It returns nil on the first success, otherwise the last error.
func Retry(ctx context.Context, attempts int, interval time.Duration, fn func(attempt int) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var last error
	for i := 1; i <= attempts; i++ {
		if last = fn(i); last == nil {
			return nil
		}
		if i == attempts {
			break
		}

		if interval <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return last
}
