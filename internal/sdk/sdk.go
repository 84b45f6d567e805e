// internal/sdk/sdk.go
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tamzrod/intelli-widgets/internal/bus"
	"github.com/tamzrod/intelli-widgets/internal/content"
	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/inject"
	"github.com/tamzrod/intelli-widgets/internal/modules"
	"github.com/tamzrod/intelli-widgets/internal/poller"
	"github.com/tamzrod/intelli-widgets/internal/sdkerr"
	"github.com/tamzrod/intelli-widgets/internal/status"
	"github.com/tamzrod/intelli-widgets/internal/widget"
)

const (
	DefaultAPIVersion    = "v1"
	DefaultModuleTimeout = 10 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
)

// Options configures one SDK per page.
type Options struct {
	AuthToken  string
	BaseURL    string
	CDNBase    string
	APIVersion string
	Locale     string

	ModuleTimeout time.Duration
	PollInterval  time.Duration
	FrameInterval time.Duration
	CleanupDelay  time.Duration

	HTTPClient *http.Client
	Runtime    modules.Runtime // defaults to modules.HTTPRuntime
	Logger     *zap.Logger
}

// WidgetRequest names one widget and how it should look.
type WidgetRequest struct {
	Name           string
	Variation      string
	Config         map[string]any
	ThemeOverrides map[string]any
	Version        int
}

// SDK is the single configured entry point for a page.
// Instances are reached only through the bus, never directly.
type SDK struct {
	opts    Options
	baseURL string
	start   time.Time

	doc      *dom.Document
	loader   *modules.Loader
	injector *inject.Injector
	fetcher  *content.Fetcher
	bus      *bus.Bus
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	locale    string
	instances []*widget.Instance
	closed    bool

	loading     singleflight.Group
	loadingMu   sync.Mutex
	loadingHTML *string
}

// NormalizeBaseURL leaves exactly one separator between base and the API version segment.
func NormalizeBaseURL(base, apiVersion string) string {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return strings.TrimRight(base, "/") + "/" + strings.Trim(apiVersion, "/")
}

// New builds the SDK for doc and starts module loading in the background.
// The module load budget starts now.
func New(doc *dom.Document, opts Options) (*SDK, error) {
	if doc == nil {
		return nil, errors.New("sdk: document required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("sdk: base url required")
	}
	if opts.CDNBase == "" {
		return nil, errors.New("sdk: cdn base required")
	}
	if opts.ModuleTimeout <= 0 {
		opts.ModuleTimeout = DefaultModuleTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Runtime == nil {
		opts.Runtime = modules.HTTPRuntime{Client: opts.HTTPClient}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	loader, err := modules.New(doc, modules.Config{
		CDNBase:       opts.CDNBase,
		FrameInterval: opts.FrameInterval,
		Runtime:       opts.Runtime,
		Logger:        opts.Logger.Named("modules"),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &SDK{
		opts:    opts,
		baseURL: NormalizeBaseURL(opts.BaseURL, opts.APIVersion),
		start:   time.Now(),
		doc:     doc,
		loader:  loader,
		injector: inject.New(doc, inject.Config{
			CleanupDelay: opts.CleanupDelay,
			Logger:       opts.Logger.Named("inject"),
		}),
		fetcher: content.NewFetcher(content.Config{
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger.Named("content"),
		}),
		bus:    bus.New(opts.Logger.Named("bus")),
		log:    opts.Logger,
		ctx:    ctx,
		cancel: cancel,
		locale: opts.Locale,
	}

	s.loader.Start(ctx)
	s.log.Info("sdk started",
		zap.String("base_url", s.baseURL),
		zap.String("cdn_base", opts.CDNBase),
		zap.String("locale", opts.Locale))
	return s, nil
}

// BaseURL returns the normalized API base, version segment included.
func (s *SDK) BaseURL() string { return s.baseURL }

// Document returns the host page.
func (s *SDK) Document() *dom.Document { return s.doc }

// Loaded is the module readiness gate.
func (s *SDK) Loaded() bool { return s.loader.Loaded() }

// Locale returns the locale new widgets are fetched with.
func (s *SDK) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// GetWidget waits for the modules, then creates, subscribes and fetches a widget.
func (s *SDK) GetWidget(ctx context.Context, req WidgetRequest) (*widget.Instance, error) {
	id := content.Identity{
		Name:           req.Name,
		Variation:      req.Variation,
		ThemeOverrides: req.ThemeOverrides,
		Config:         req.Config,
		BaseURL:        s.baseURL,
		AuthToken:      s.opts.AuthToken,
		ContentVersion: req.Version,
	}

	if err := s.waitModules(ctx); err != nil {
		return nil, err
	}

	inst, err := widget.New(s.ctx, widget.Config{
		Identity: id,
		Document: s.doc,
		Fetcher:  s.fetcher,
		Injector: s.injector,
		Ready:    s.loader.Loaded,
		Logger:   s.log.Named("widget"),
	})
	if err != nil {
		return nil, err
	}
	inst.Attach(s.bus)

	if err := inst.Fetch(ctx, s.Locale()); err != nil {
		inst.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		inst.Close()
		return nil, sdkerr.SDKLoading("sdk closed", nil)
	}
	s.instances = append(s.instances, inst)
	s.mu.Unlock()
	return inst, nil
}

// waitModules polls the readiness gate until it opens or the budget,
// counted from construction, is spent.
func (s *SDK) waitModules(ctx context.Context) error {
	p, err := poller.New(poller.Config{
		Name:     "modules",
		Interval: s.opts.PollInterval,
		Deadline: s.start.Add(s.opts.ModuleTimeout),
	}, s.loader.Loaded)
	if err != nil {
		return err
	}

	res := p.Run(ctx)
	switch {
	case res.Ready:
		return nil
	case errors.Is(res.Err, poller.ErrDeadline):
		return sdkerr.SDKLoading(
			fmt.Sprintf("required modules not loaded within %s", s.opts.ModuleTimeout), res.Err)
	default:
		return res.Err
	}
}

// MountWidget paints the shared loading placeholder at selector, then
// replaces it with the widget once it resolves. The returned instance is
// non-nil whenever the widget itself was acquired.
func (s *SDK) MountWidget(ctx context.Context, selector string, req WidgetRequest) (*widget.Instance, error) {
	type acquired struct {
		inst *widget.Instance
		err  error
	}

	widgetCh := make(chan acquired, 1)
	go func() {
		inst, err := s.GetWidget(ctx, req)
		widgetCh <- acquired{inst, err}
	}()

	placeholderCh := make(chan string, 1)
	go func() {
		placeholderCh <- s.LoadingHTML()
	}()

	var got acquired
	select {
	case markup := <-placeholderCh:
		s.paintPlaceholder(selector, markup)
		got = <-widgetCh
	case got = <-widgetCh:
	}

	if got.err != nil {
		return nil, got.err
	}
	if err := got.inst.Mount(selector); err != nil {
		return got.inst, err
	}
	return got.inst, nil
}

func (s *SDK) paintPlaceholder(selector, markup string) {
	ok, err := s.doc.Exists(selector)
	if err != nil || !ok {
		return
	}
	if err := s.doc.SetInnerHTML(selector, markup); err != nil {
		s.log.Warn("placeholder paint failed", zap.String("selector", selector), zap.Error(err))
	}
}

// ChangeLanguage broadcasts a locale change to every instance on the page.
func (s *SDK) ChangeLanguage(locale string) {
	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()
	s.bus.Publish(bus.LanguageChange{Locale: locale})
}

// Clear broadcasts a clear signal to every instance on the page.
func (s *SDK) Clear() {
	s.bus.Publish(bus.Clear{})
}

// Dispatch accepts a raw wire envelope from another context.
// It reports whether the envelope was a valid widget message.
func (s *SDK) Dispatch(raw []byte) bool {
	msg, ok := bus.Decode(raw, s.log.Named("bus"))
	if !ok {
		return false
	}
	if lc, isLang := msg.(bus.LanguageChange); isLang {
		s.mu.Lock()
		s.locale = lc.Locale
		s.mu.Unlock()
	}
	s.bus.Publish(msg)
	return true
}

// Release closes one instance and stops tracking it.
func (s *SDK) Release(inst *widget.Instance) {
	s.mu.Lock()
	s.instances = slices.DeleteFunc(s.instances, func(w *widget.Instance) bool { return w == inst })
	s.mu.Unlock()
	inst.Close()
}

// Instances returns the live instances.
func (s *SDK) Instances() []*widget.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.instances)
}

// Status reports module and instance state.
func (s *SDK) Status() status.Snapshot {
	s.mu.Lock()
	closed := s.closed
	instances := len(s.instances)
	locale := s.locale
	s.mu.Unlock()

	mods := make(map[string]string, len(modules.All))
	failed := false
	for name, st := range s.loader.Status() {
		mods[name] = string(st)
		if st == modules.StateFailed {
			failed = true
		}
	}

	elapsed := time.Since(s.start)
	health := status.HealthLoading
	switch {
	case closed:
		health = status.HealthClosed
	case s.loader.Loaded():
		health = status.HealthOK
	case failed || elapsed >= s.opts.ModuleTimeout:
		health = status.HealthError
	}

	return status.Snapshot{
		Health:        health,
		Modules:       mods,
		Visualization: s.loader.VisualizationLoaded(),
		ElapsedMs:     elapsed.Milliseconds(),
		Instances:     instances,
		Subscribers:   s.bus.Len(),
		Locale:        locale,
	}
}

// Close tears the page down: module loading stops, every instance
// unsubscribes and pending script cleanups run.
func (s *SDK) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	instances := s.instances
	s.instances = nil
	s.mu.Unlock()

	s.cancel()
	for _, inst := range instances {
		inst.Close()
	}
	s.bus.Close()
	s.loader.Wait()
	s.injector.Wait()
}
