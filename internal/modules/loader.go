// internal/modules/loader.go
package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/poller"
)

// DefaultFrameInterval stands in for one animation frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Module is one third-party runtime library and the global it defines.
type Module struct {
	Name   string
	Path   string
	Global string
}

var (
	Chart         = Module{Name: "chart", Path: "third-party/v1/chart.umd.js", Global: "Chart"}
	ChartPlugin   = Module{Name: "chart-plugin", Path: "third-party/v1/chartjs-plugin-datalabels.min.js", Global: "ChartDataLabels"}
	Visualization = Module{Name: "visualization", Path: "third-party/v1/d3.v7.min.js", Global: "d3"}
)

// All lists the modules in injection order.
var All = []Module{Chart, Visualization, ChartPlugin}

// State is the per-module load state reported by Status.
type State string

const (
	StatePending State = "pending"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Config is the loader's runtime config.
type Config struct {
	CDNBase       string
	FrameInterval time.Duration
	Runtime       Runtime
	Logger        *zap.Logger
}

// Loader injects the chart library, its plugin and the visualization
// library into the page exactly once.
type Loader struct {
	doc   *dom.Document
	cdn   string
	frame time.Duration
	rt    Runtime
	log   *zap.Logger

	once sync.Once
	wg   sync.WaitGroup

	mu     sync.Mutex
	failed map[string]error
}

// New creates a loader with immutable config.
func New(doc *dom.Document, cfg Config) (*Loader, error) {
	if doc == nil {
		return nil, errors.New("modules: document required")
	}
	if cfg.CDNBase == "" {
		return nil, errors.New("modules: cdn base required")
	}
	if cfg.Runtime == nil {
		return nil, errors.New("modules: runtime required")
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Loader{
		doc:    doc,
		cdn:    strings.TrimRight(cfg.CDNBase, "/"),
		frame:  cfg.FrameInterval,
		rt:     cfg.Runtime,
		log:    cfg.Logger,
		failed: make(map[string]error),
	}, nil
}

// URI returns the CDN location of m.
func (l *Loader) URI(m Module) string {
	return l.cdn + "/" + m.Path
}

// Start kicks off loading without blocking the caller. Only the first call has effect.
// Chart and visualization load concurrently; the plugin waits for the chart global.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		l.spawn(ctx, Chart, nil)
		l.spawn(ctx, Visualization, nil)
		l.spawn(ctx, ChartPlugin, l.ChartLoaded)
	})
}

func (l *Loader) spawn(ctx context.Context, m Module, ready poller.Check) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.InjectModule(ctx, m, ready); err != nil {
			l.log.Warn("module load failed",
				zap.String("module", m.Name),
				zap.String("uri", l.URI(m)),
				zap.Error(err))
		}
	}()
}

// InjectModule appends a module script for m and runs it.
// With a ready predicate that does not hold yet, the attempt is retried
// every frame until it does or ctx is done.
func (l *Loader) InjectModule(ctx context.Context, m Module, ready poller.Check) error {
	if ready != nil && !ready() {
		p, err := poller.New(poller.Config{Name: m.Name, Interval: l.frame}, ready)
		if err != nil {
			return err
		}
		res := p.Run(ctx)
		if res.Err != nil {
			return l.fail(m, fmt.Errorf("modules: waiting for %s: %w", m.Name, res.Err))
		}
		l.log.Debug("module gate open", zap.String("module", m.Name), zap.Int("frames", res.Attempt))
	}

	uri := l.URI(m)
	script := dom.Element("script", "type", "module", "src", uri)
	if err := l.doc.Mutate(func(t dom.Tree) error {
		t.Head.AppendChild(script)
		return nil
	}); err != nil {
		return l.fail(m, err)
	}

	if err := l.rt.Execute(ctx, uri); err != nil {
		return l.fail(m, fmt.Errorf("modules: execute %s: %w", uri, err))
	}

	l.doc.Window().Define(m.Global)
	l.log.Debug("module loaded", zap.String("module", m.Name), zap.String("global", m.Global))
	return nil
}

func (l *Loader) fail(m Module, err error) error {
	l.mu.Lock()
	l.failed[m.Name] = err
	l.mu.Unlock()
	return err
}

// Wait blocks until every module started by Start has finished or failed.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// ChartLoaded reports whether the chart library global is defined.
func (l *Loader) ChartLoaded() bool {
	return l.doc.Window().Defined(Chart.Global)
}

// PluginLoaded reports whether the chart plugin global is defined.
func (l *Loader) PluginLoaded() bool {
	return l.doc.Window().Defined(ChartPlugin.Global)
}

// VisualizationLoaded reports whether the visualization library global is defined.
func (l *Loader) VisualizationLoaded() bool {
	return l.doc.Window().Defined(Visualization.Global)
}

// Loaded is the readiness gate for mounting widgets.
// It covers the chart library and its plugin only; the visualization
// library is tracked separately by VisualizationLoaded.
func (l *Loader) Loaded() bool {
	return l.ChartLoaded() && l.PluginLoaded()
}

// Status returns the per-module state, derived from page globals.
func (l *Loader) Status() map[string]State {
	out := make(map[string]State, len(All))

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range All {
		switch {
		case l.doc.Window().Defined(m.Global):
			out[m.Name] = StateLoaded
		case l.failed[m.Name] != nil:
			out[m.Name] = StateFailed
		default:
			out[m.Name] = StatePending
		}
	}
	return out
}
