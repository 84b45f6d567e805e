// internal/modules/runtime.go
package modules

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Runtime executes a module script referenced by src.
// A nil error means the module's global is now available.
type Runtime interface {
	Execute(ctx context.Context, src string) error
}

// HTTPRuntime treats a module as executed once its source downloads with a 2xx status.
type HTTPRuntime struct {
	Client *http.Client
}

func (r HTTPRuntime) Execute(ctx context.Context, src string) error {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// StaticRuntime executes every module without I/O. Used for offline rendering.
type StaticRuntime struct{}

func (StaticRuntime) Execute(context.Context, string) error { return nil }

// RuntimeFunc adapts a function to Runtime.
type RuntimeFunc func(ctx context.Context, src string) error

func (f RuntimeFunc) Execute(ctx context.Context, src string) error { return f(ctx, src) }
