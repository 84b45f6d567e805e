// internal/poller/poller.go
package poller

import (
	"errors"
	"time"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration

	// Deadline is checked cooperatively between attempts. Zero means none.
	Deadline time.Time

	// MaxAttempts bounds the loop. Zero means unbounded.
	MaxAttempts int
}

// Poller is a dumb, clock-driven readiness probe.
type Poller struct {
	cfg     Config
	check   Check
	attempt int
	now     func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, check Check) (*Poller, error) {
	if cfg.Name == "" {
		return nil, errors.New("poller: name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.MaxAttempts < 0 {
		return nil, errors.New("poller: max attempts must be >= 0")
	}
	if check == nil {
		return nil, errors.New("poller: check required")
	}
	return &Poller{cfg: cfg, check: check, now: time.Now}, nil
}

// PollOnce performs exactly one check.
func (p *Poller) PollOnce() Result {
	p.attempt++

	res := Result{
		Name:    p.cfg.Name,
		At:      p.now(),
		Attempt: p.attempt,
	}

	if p.check() {
		res.Ready = true
		return res
	}

	if !p.cfg.Deadline.IsZero() && !res.At.Before(p.cfg.Deadline) {
		res.Err = ErrDeadline
		return res
	}
	if p.cfg.MaxAttempts > 0 && p.attempt >= p.cfg.MaxAttempts {
		res.Err = ErrExhausted
	}
	return res
}

// Attempts returns how many checks have run.
func (p *Poller) Attempts() int { return p.attempt }
