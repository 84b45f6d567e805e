// internal/config/normalize.go
package config

import (
	"strings"
	"time"

	"github.com/tamzrod/intelli-widgets/internal/sdk"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.SDK

	s.BaseURL = strings.TrimRight(s.BaseURL, "/")

	// The CDN defaults to the API host.
	if s.CDNBase == "" {
		s.CDNBase = s.BaseURL
	}
	s.CDNBase = strings.TrimRight(s.CDNBase, "/")

	if s.APIVersion == "" {
		s.APIVersion = sdk.DefaultAPIVersion
	}
	s.APIVersion = strings.Trim(s.APIVersion, "/")

	if s.ModuleTimeoutMs == 0 {
		s.ModuleTimeoutMs = int(sdk.DefaultModuleTimeout / time.Millisecond)
	}
	if s.PollIntervalMs == 0 {
		s.PollIntervalMs = int(sdk.DefaultPollInterval / time.Millisecond)
	}

	for i := range cfg.Widgets {
		w := &cfg.Widgets[i]
		w.Name = strings.TrimSpace(w.Name)
		w.Selector = strings.TrimSpace(w.Selector)
	}
}

// ModuleTimeout returns the module load budget as a duration.
func (s SDKConfig) ModuleTimeout() time.Duration {
	return time.Duration(s.ModuleTimeoutMs) * time.Millisecond
}

// PollInterval returns the readiness poll interval as a duration.
func (s SDKConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}
