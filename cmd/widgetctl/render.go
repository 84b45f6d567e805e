// cmd/widgetctl/render.go
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamzrod/intelli-widgets/internal/sdk"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <config.yaml>",
	Short: "Mount every configured widget once and write the page",
	Long: `Builds the host document, mounts all widgets concurrently and writes the
resulting HTML to page.output (or --out, or stdout when neither is set).`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (overrides page.output)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
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

	mountErr := mountAll(cmd.Context(), s, cfg.Widgets)

	// Close waits for pending body-script cleanups so the written page is final.
	s.Close()

	if mountErr != nil {
		return mountErr
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	out := renderOut
	if out == "" {
		out = cfg.Page.Output
	}
	if out == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("page written",
		zap.String("path", out),
		zap.Int("widgets", len(cfg.Widgets)))
	return nil
}
