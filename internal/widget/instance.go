// internal/widget/instance.go
package widget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/tamzrod/intelli-widgets/internal/bus"
	"github.com/tamzrod/intelli-widgets/internal/content"
	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/inject"
	"github.com/tamzrod/intelli-widgets/internal/sdkerr"
)

// Fetcher abstracts the content API. The instance depends on parsed fragments only.
type Fetcher interface {
	Fetch(ctx context.Context, id content.Identity, locale string) (*content.Content, error)
}

// Injector abstracts asset placement into the live document.
type Injector interface {
	InjectHead(el *html.Node, uid string) error
	InjectBodyScript(text, uid string) error
}

// Config is what an instance needs to exist.
type Config struct {
	Identity content.Identity
	Document *dom.Document
	Fetcher  Fetcher
	Injector Injector
	Ready    func() bool // module readiness gate
	Logger   *zap.Logger
}

// Instance owns one widget's fetched content and its mount points.
//
// States: unfetched (content nil) -> fetched -> fetched with mounts.
// There is no terminal state other than Close.
type Instance struct {
	id       string
	ident    content.Identity
	doc      *dom.Document
	fetcher  Fetcher
	injector Injector
	ready    func() bool
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	content *content.Content
	locale  string
	mounts  []string
	sub     *bus.Subscription

	// fetchSeq numbers Fetch calls in start order; applied is the
	// sequence of the result currently held.
	fetchSeq uint64
	applied  uint64
}

// New creates an unfetched instance. ctx bounds the work done in reaction
// to bus messages.
func New(ctx context.Context, cfg Config) (*Instance, error) {
	if cfg.Identity.Name == "" {
		return nil, errors.New("widget: name required")
	}
	if cfg.Document == nil {
		return nil, errors.New("widget: document required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("widget: fetcher required")
	}
	if cfg.Injector == nil {
		return nil, errors.New("widget: injector required")
	}
	if cfg.Ready == nil {
		return nil, errors.New("widget: readiness gate required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	id := "iw-" + uuid.NewString()
	ictx, cancel := context.WithCancel(ctx)

	return &Instance{
		id:       id,
		ident:    cfg.Identity,
		doc:      cfg.Document,
		fetcher:  cfg.Fetcher,
		injector: cfg.Injector,
		ready:    cfg.Ready,
		log:      cfg.Logger.With(zap.String("widget", cfg.Identity.Name), zap.String("widget_id", id)),
		ctx:      ictx,
		cancel:   cancel,
	}, nil
}

func (w *Instance) ID() string                 { return w.id }
func (w *Instance) Identity() content.Identity { return w.ident }

// Content returns the current fragment, nil before the first successful fetch.
func (w *Instance) Content() *content.Content {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.content
}

// Locale returns the locale of the current content.
func (w *Instance) Locale() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.locale
}

// MountPoints returns a copy of the tracked selectors in insertion order.
func (w *Instance) MountPoints() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.mounts)
}

// UID is the mount uid for the 1-based position of a mount point.
func (w *Instance) UID(position int) string {
	return fmt.Sprintf("%s-%d", w.id, position)
}

// Fetch retrieves content at locale and replaces the current content
// wholesale. Assets already injected stay in the document. On failure the
// previous content is kept. A result that completes after the result of a
// later-started Fetch is discarded, so overlapping fetches settle on the
// most recently requested locale.
func (w *Instance) Fetch(ctx context.Context, locale string) error {
	w.mu.Lock()
	w.fetchSeq++
	seq := w.fetchSeq
	w.mu.Unlock()

	c, err := w.fetcher.Fetch(ctx, w.ident, locale)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if seq < w.applied {
		w.log.Debug("stale fetch discarded",
			zap.String("locale", locale),
			zap.Uint64("seq", seq),
			zap.Uint64("applied", w.applied))
		return nil
	}
	w.applied = seq
	w.content = c
	w.locale = locale
	return nil
}

// Mount renders the widget at selector and tracks it.
func (w *Instance) Mount(selector string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mountLocked(selector)
}

func (w *Instance) mountLocked(selector string) error {
	if !w.ready() {
		return sdkerr.DOMContract("widget %s: modules not loaded", w.ident.Name)
	}
	if w.content == nil || w.content.Root == nil {
		return sdkerr.DOMContract("widget %s: no content to mount", w.ident.Name)
	}

	ok, err := w.doc.Exists(selector)
	if err != nil {
		return err
	}
	if !ok {
		return sdkerr.DOMContract("widget %s: no element matches %q", w.ident.Name, selector)
	}

	markup, err := w.content.Markup()
	if err != nil {
		return fmt.Errorf("widget %s: serialize: %w", w.ident.Name, err)
	}

	pos := slices.Index(w.mounts, selector)
	if pos < 0 {
		w.mounts = append(w.mounts, selector)
		pos = len(w.mounts) - 1
	}
	uid := w.UID(pos + 1)

	// Head assets go in on every mount, not only the first.
	for _, el := range w.content.Head {
		if err := w.injector.InjectHead(el, uid); err != nil {
			return err
		}
	}

	if err := w.doc.SetInnerHTML(selector, inject.Substitute(markup, uid)); err != nil {
		return err
	}

	for _, script := range w.content.BodyScripts {
		if err := w.injector.InjectBodyScript(script, uid); err != nil {
			return err
		}
	}

	w.log.Debug("mounted", zap.String("selector", selector), zap.String("uid", uid))
	return nil
}

// UpdateAll re-mounts every tracked selector. A failing selector is logged
// and does not stop the others.
func (w *Instance) UpdateAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, selector := range slices.Clone(w.mounts) {
		if err := w.mountLocked(selector); err != nil {
			w.log.Warn("re-mount failed", zap.String("selector", selector), zap.Error(err))
		}
	}
}

// RemoveAll empties every tracked mount point still present and forgets
// all of them, whatever the individual outcomes.
func (w *Instance) RemoveAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, selector := range w.mounts {
		if err := w.doc.ClearInner(selector); err != nil {
			w.log.Warn("remove failed", zap.String("selector", selector), zap.Error(err))
		}
	}
	w.mounts = nil
}

// Handle reacts to one bus message.
func (w *Instance) Handle(msg bus.Message) {
	switch m := msg.(type) {
	case bus.LanguageChange:
		if err := w.Fetch(w.ctx, m.Locale); err != nil {
			w.log.Error("language change fetch failed", zap.String("locale", m.Locale), zap.Error(err))
			return
		}
		w.UpdateAll()

	case bus.Clear:
		w.RemoveAll()

	default:
		w.log.Warn("unhandled message kind", zap.String("kind", msg.Kind()))
	}
}

// Attach subscribes the instance to b. Only the first call has effect.
func (w *Instance) Attach(b *bus.Bus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		return
	}
	w.sub = b.Subscribe(w.Handle)
}

// Close unsubscribes and abandons in-flight message work. Mounted markup
// stays in the document.
func (w *Instance) Close() {
	w.cancel()

	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
		<-sub.Done()
	}
}
