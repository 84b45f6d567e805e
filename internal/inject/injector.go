// internal/inject/injector.go
package inject

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/tamzrod/intelli-widgets/internal/dom"
	"github.com/tamzrod/intelli-widgets/internal/sdkerr"
)

// Placeholder is the token widget markup uses wherever an id must be unique per mount.
const Placeholder = "intelli-widget-id"

// StyleElementID identifies the one aggregated <style> element in the page head.
const StyleElementID = "intelli-widgets-styles"

// DefaultCleanupDelay is how long an injected body script stays in the page.
const DefaultCleanupDelay = 500 * time.Millisecond

// Config is the injector's runtime config.
type Config struct {
	CleanupDelay time.Duration
	Logger       *zap.Logger
}

// Injector re-creates parsed elements inside the live document.
// Parsed fragments are inert; only freshly created elements count as injected.
type Injector struct {
	doc   *dom.Document
	delay time.Duration
	log   *zap.Logger

	pending sync.WaitGroup
}

// New creates an injector bound to doc.
func New(doc *dom.Document, cfg Config) *Injector {
	if cfg.CleanupDelay <= 0 {
		cfg.CleanupDelay = DefaultCleanupDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Injector{
		doc:   doc,
		delay: cfg.CleanupDelay,
		log:   cfg.Logger,
	}
}

// Substitute replaces every placeholder token with uid. Empty uid is a no-op.
func Substitute(s, uid string) string {
	if uid == "" {
		return s
	}
	return strings.ReplaceAll(s, Placeholder, uid)
}

// InjectHead places one head asset into the document.
//
//   - script: a new element carrying only the external src
//   - style:  text appended to the aggregated style element
//   - link:   cloned verbatim
//
// Any other element kind is a DOM contract error.
func (i *Injector) InjectHead(el *html.Node, uid string) error {
	if el == nil || el.Type != html.ElementNode {
		return sdkerr.DOMContract("inject: head asset is not an element")
	}

	switch el.Data {
	case "script":
		script := dom.Element("script")
		if src, ok := dom.Attr(el, "src"); ok {
			script.Attr = append(script.Attr, html.Attribute{Key: "src", Val: src})
		}
		return i.doc.Mutate(func(t dom.Tree) error {
			t.Head.AppendChild(script)
			return nil
		})

	case "style":
		css := Substitute(dom.TextContent(el), uid)
		return i.doc.Mutate(func(t dom.Tree) error {
			style := dom.FindByID(t.Head, StyleElementID)
			if style == nil {
				style = dom.Element("style", "id", StyleElementID)
				t.Head.AppendChild(style)
			}
			dom.SetText(style, dom.TextContent(style)+css)
			return nil
		})

	case "link":
		link := dom.Element("link")
		link.Attr = append(link.Attr, el.Attr...)
		return i.doc.Mutate(func(t dom.Tree) error {
			t.Head.AppendChild(link)
			return nil
		})

	default:
		return sdkerr.DOMContract("inject: unsupported head element <%s>", el.Data)
	}
}

// InjectBodyScript appends an inline script to the body and removes it
// again after the cleanup delay.
func (i *Injector) InjectBodyScript(text, uid string) error {
	script := dom.Element("script")
	script.AppendChild(&html.Node{Type: html.TextNode, Data: Substitute(text, uid)})

	if err := i.doc.Mutate(func(t dom.Tree) error {
		t.Body.AppendChild(script)
		return nil
	}); err != nil {
		return err
	}

	i.pending.Add(1)
	time.AfterFunc(i.delay, func() {
		defer i.pending.Done()
		_ = i.doc.Mutate(func(dom.Tree) error {
			dom.Detach(script)
			return nil
		})
		i.log.Debug("body script removed", zap.String("uid", uid))
	})
	return nil
}

// Wait blocks until every scheduled body script cleanup has run.
func (i *Injector) Wait() {
	i.pending.Wait()
}
