// cmd/widgetctl/page.go
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/intelli-widgets/internal/config"
	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/modules"
	"github.com/tamzrod/intelli-widgets/internal/sdk"
)

// loadConfig runs the Load -> Validate -> Normalize pipeline.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

// loadDocument parses the configured host page, or starts from an empty one.
func loadDocument(cfg *config.Config) (*dom.Document, error) {
	if cfg.Page.Template == "" {
		return dom.New(), nil
	}

	f, err := os.Open(cfg.Page.Template)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return doc, nil
}

func sdkOptions(cfg *config.Config, log *zap.Logger) sdk.Options {
	opts := sdk.Options{
		AuthToken:     cfg.SDK.AuthToken,
		BaseURL:       cfg.SDK.BaseURL,
		CDNBase:       cfg.SDK.CDNBase,
		APIVersion:    cfg.SDK.APIVersion,
		Locale:        cfg.SDK.Locale,
		ModuleTimeout: cfg.SDK.ModuleTimeout(),
		PollInterval:  cfg.SDK.PollInterval(),
		Logger:        log,
	}
	if cfg.SDK.OfflineModules {
		opts.Runtime = modules.StaticRuntime{}
	}
	return opts
}

// mountAll mounts every configured widget concurrently. The first failure
// is returned; widgets mounted before it stay on the page.
func mountAll(ctx context.Context, s *sdk.SDK, widgets []config.WidgetConfig) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, w := range widgets {
		g.Go(func() error {
			_, err := s.MountWidget(ctx, w.Selector, sdk.WidgetRequest{
				Name:           w.Name,
				Variation:      w.Variation,
				Config:         w.Data,
				ThemeOverrides: w.Theme,
				Version:        w.Version,
			})
			if err != nil {
				return fmt.Errorf("widget %q at %s: %w", w.Name, w.Selector, err)
			}
			return nil
		})
	}
	return g.Wait()
}
