// internal/config/config.go
package config

type Config struct {
	SDK     SDKConfig      `yaml:"sdk"`
	Page    PageConfig     `yaml:"page"`
	Widgets []WidgetConfig `yaml:"widgets"`
}

// ---- SDK ----

type SDKConfig struct {
	AuthToken  string `yaml:"auth_token"`
	BaseURL    string `yaml:"base_url"`
	CDNBase    string `yaml:"cdn_base"`
	APIVersion string `yaml:"api_version"`
	Locale     string `yaml:"locale"`

	ModuleTimeoutMs int `yaml:"module_timeout_ms"`
	PollIntervalMs  int `yaml:"poll_interval_ms"`

	// Treat module scripts as executed without fetching them.
	OfflineModules bool `yaml:"offline_modules"`
}

// ---- PAGE ----

type PageConfig struct {
	Template string `yaml:"template"` // optional host page; empty skeleton otherwise
	Output   string `yaml:"output"`
}

// ---- WIDGET ----

type WidgetConfig struct {
	Name      string         `yaml:"name"`
	Variation string         `yaml:"variation"`
	Selector  string         `yaml:"selector"`
	Version   int            `yaml:"version"`
	Theme     map[string]any `yaml:"theme"`
	Data      map[string]any `yaml:"data"`
}
