// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// SDK
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.SDK.AuthToken) == "" {
		return fmt.Errorf("sdk.auth_token is required")
	}

	if err := absoluteURL("sdk.base_url", cfg.SDK.BaseURL, true); err != nil {
		return err
	}
	if err := absoluteURL("sdk.cdn_base", cfg.SDK.CDNBase, false); err != nil {
		return err
	}

	if cfg.SDK.ModuleTimeoutMs < 0 {
		return fmt.Errorf("sdk.module_timeout_ms must not be negative")
	}
	if cfg.SDK.PollIntervalMs < 0 {
		return fmt.Errorf("sdk.poll_interval_ms must not be negative")
	}

	// ------------------------------------------------------------
	// WIDGETS
	// ------------------------------------------------------------

	// key = selector, value = owning widget
	owner := make(map[string]string)

	for i, w := range cfg.Widgets {
		if strings.TrimSpace(w.Name) == "" {
			return fmt.Errorf("widgets[%d]: name is required", i)
		}
		selector := strings.TrimSpace(w.Selector)
		if selector == "" {
			return fmt.Errorf("widget %q: selector is required", w.Name)
		}
		if w.Version < 0 {
			return fmt.Errorf("widget %q: version must not be negative", w.Name)
		}

		// compared as Normalize will leave them
		if prev, exists := owner[selector]; exists {
			return fmt.Errorf(
				"selector collision: %q used by widgets %q and %q",
				selector,
				prev,
				w.Name,
			)
		}
		owner[selector] = w.Name
	}

	return nil
}

func absoluteURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
