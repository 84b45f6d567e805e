// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a valid config quickly
func base(widgets ...WidgetConfig) *Config {
	return &Config{
		SDK: SDKConfig{
			AuthToken: "tok",
			BaseURL:   "https://api.example.com",
		},
		Widgets: widgets,
	}
}

func widget(name, selector string) WidgetConfig {
	return WidgetConfig{Name: name, Selector: selector}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(base(widget("portfolio", "#p"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoWidgetsAllowed(t *testing.T) {
	if err := Validate(base()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_AuthTokenRequired(t *testing.T) {
	cfg := base()
	cfg.SDK.AuthToken = "  "

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected auth_token error, got nil")
	}
}

func TestValidate_BaseURLRequired(t *testing.T) {
	cfg := base()
	cfg.SDK.BaseURL = ""

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected base_url error, got nil")
	}
}

func TestValidate_BaseURLMustBeAbsolute(t *testing.T) {
	cfg := base()
	cfg.SDK.BaseURL = "/api"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "absolute") {
		t.Fatalf("expected absolute URL error, got %v", err)
	}
}

func TestValidate_CDNBaseOptionalButAbsolute(t *testing.T) {
	cfg := base()
	cfg.SDK.CDNBase = "cdn.example.com"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected cdn_base error, got nil")
	}
}

func TestValidate_WidgetNameRequired(t *testing.T) {
	if err := Validate(base(widget("", "#p"))); err == nil {
		t.Fatalf("expected name error, got nil")
	}
}

func TestValidate_WidgetSelectorRequired(t *testing.T) {
	if err := Validate(base(widget("portfolio", ""))); err == nil {
		t.Fatalf("expected selector error, got nil")
	}
}

func TestValidate_SameWidgetDifferentSelectors(t *testing.T) {
	cfg := base(
		widget("portfolio", "#left"),
		widget("portfolio", "#right"),
	)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_SelectorCollisionDetected(t *testing.T) {
	cfg := base(
		widget("portfolio", "#main"),
		widget("news", "#main"),
	)

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected collision error, got nil")
	}
	if !strings.Contains(err.Error(), `"portfolio"`) || !strings.Contains(err.Error(), `"news"`) {
		t.Fatalf("collision error should name both widgets: %v", err)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := base(widget(" portfolio ", " #p "))
	cfg.SDK.BaseURL = "https://api.example.com/"

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SDK.BaseURL != "https://api.example.com/" || cfg.Widgets[0].Selector != " #p " {
		t.Fatalf("validate mutated config: %+v", cfg)
	}
}

func TestValidate_SelectorCollisionIgnoresWhitespace(t *testing.T) {
	cfg := base(
		widget("portfolio", " #a"),
		widget("news", "#a "),
	)

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected collision error for selectors equal after trimming, got nil")
	}
}
