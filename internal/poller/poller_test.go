package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeCheck struct {
	readyAfter int32
	calls      atomic.Int32
}

func (f *fakeCheck) Check() bool {
	return f.calls.Add(1) > f.readyAfter
}

func TestNew_Validation(t *testing.T) {
	ok := func() bool { return true }

	if _, err := New(Config{Interval: time.Millisecond}, ok); err == nil {
		t.Fatalf("expected name error")
	}
	if _, err := New(Config{Name: "x"}, ok); err == nil {
		t.Fatalf("expected interval error")
	}
	if _, err := New(Config{Name: "x", Interval: time.Millisecond}, nil); err == nil {
		t.Fatalf("expected check error")
	}
}

func TestPollOnce_Ready(t *testing.T) {
	p, err := New(Config{Name: "modules", Interval: time.Millisecond}, func() bool { return true })
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if !res.Ready || res.Err != nil {
		t.Fatalf("expected ready, got %+v", res)
	}
	if res.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", res.Attempt)
	}
}

func TestPollOnce_DeadlinePassed(t *testing.T) {
	p, err := New(Config{
		Name:     "modules",
		Interval: time.Millisecond,
		Deadline: time.Now().Add(-time.Second),
	}, func() bool { return false })
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if !errors.Is(res.Err, ErrDeadline) {
		t.Fatalf("expected deadline error, got %v", res.Err)
	}
}

func TestRun_BecomesReady(t *testing.T) {
	f := &fakeCheck{readyAfter: 3}
	p, err := New(Config{Name: "modules", Interval: time.Millisecond}, f.Check)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.Run(context.Background())
	if !res.Ready {
		t.Fatalf("expected ready, got %+v", res)
	}
	if res.Attempt != 4 {
		t.Fatalf("expected 4 attempts, got %d", res.Attempt)
	}
}

func TestRun_Exhausted(t *testing.T) {
	p, err := New(Config{Name: "modules", Interval: time.Millisecond, MaxAttempts: 5}, func() bool { return false })
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.Run(context.Background())
	if !errors.Is(res.Err, ErrExhausted) {
		t.Fatalf("expected exhausted, got %v", res.Err)
	}
	if p.Attempts() != 5 {
		t.Fatalf("expected 5 attempts, got %d", p.Attempts())
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	p, err := New(Config{Name: "modules", Interval: time.Millisecond}, func() bool { return false })
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := p.Run(ctx)
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", res.Err)
	}
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, 0, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func(int) error {
		calls++
		return errors.New("status 503")
	})
	if err == nil || err.Error() != "status 503" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
}
