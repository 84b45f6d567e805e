// internal/config/watch_test.go
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWatch_ReloadsValidRevisions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func(c *Config) { got <- c })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	// invalid revision: skipped
	if err := os.WriteFile(path, []byte("sdk:\n  base_url: relative\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	next := strings.Replace(sample, `locale: "en"`, `locale: "fr"`, 1)
	if err := os.WriteFile(path, []byte(next), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case cfg := <-got:
		if cfg.SDK.Locale != "fr" {
			t.Fatalf("expected locale fr, got %q", cfg.SDK.Locale)
		}
		if cfg.SDK.APIVersion != "v1" {
			t.Fatalf("reloaded config not normalized: %+v", cfg.SDK)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "widgets.yaml")
	err := Watch(context.Background(), path, 0, nil, func(*Config) {})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
