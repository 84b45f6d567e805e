// internal/poller/types.go
package poller

import (
	"errors"
	"time"
)

var (
	// ErrDeadline means the wall-clock budget elapsed before the check held.
	ErrDeadline = errors.New("poller: deadline exceeded")

	// ErrExhausted means MaxAttempts checks failed.
	ErrExhausted = errors.New("poller: attempts exhausted")
)

// Check is one readiness probe. It must not block.
type Check func() bool

// Result is a snapshot produced by one poll cycle.
type Result struct {
	Name    string
	At      time.Time
	Attempt int

	Ready bool
	Err   error // non-nil means polling stopped without the check holding
}
