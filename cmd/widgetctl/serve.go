// cmd/widgetctl/serve.go
package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/intelli-widgets/internal/config"
	"github.com/tamzrod/intelli-widgets/internal/sdk"
	"github.com/tamzrod/intelli-widgets/internal/server"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <config.yaml>",
	Short: "Serve the composed page with a live message endpoint",
	Long: `Mounts every configured widget, then serves:

  GET  /          the composed document
  GET  /status    module and instance status
  POST /messages  a cross-context widget message envelope

With --watch, edits to sdk.locale in the config file are broadcast to every
widget as a language change.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the config on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	doc, err := loadDocument(cfg)
	if err != nil {
		return err
	}

	s, err := sdk.New(doc, sdkOptions(cfg, logger))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A widget that fails to mount is logged; the page is still served.
	if err := mountAll(ctx, s, cfg.Widgets); err != nil {
		logger.Warn("mount failed", zap.Error(err))
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(s, logger.Named("server"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, serveAddr)
	})

	if serveWatch {
		g.Go(func() error {
			return config.Watch(ctx, path, 0, logger.Named("config"), func(next *config.Config) {
				applyReload(s, next)
			})
		})
	}

	return g.Wait()
}

// applyReload carries the live-reloadable parts of a config revision over to
// the running SDK. Only the locale is live; everything else needs a restart.
func applyReload(s *sdk.SDK, next *config.Config) {
	if next.SDK.Locale == s.Locale() {
		return
	}
	logger.Info("locale changed",
		zap.String("from", s.Locale()),
		zap.String("to", next.SDK.Locale))
	s.ChangeLanguage(next.SDK.Locale)
}
