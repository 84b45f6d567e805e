// internal/dom/document.go
package dom

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tamzrod/intelli-widgets/internal/sdkerr"
)

const skeleton = "<!DOCTYPE html><html><head></head><body></body></html>"

// Tree is the view of the page handed to Mutate callbacks.
// Nodes must not be retained after the callback returns.
type Tree struct {
	Root *html.Node
	Head *html.Node
	Body *html.Node
}

// Document is the live host page.
// All reads and writes go through its lock, so one call is one atomic DOM turn.
type Document struct {
	mu     sync.Mutex
	tree   Tree
	window *Window
}

// New returns an empty page.
func New() *Document {
	d, err := Parse(strings.NewReader(skeleton))
	if err != nil {
		// skeleton is constant; html.Parse only fails on reader errors
		panic(err)
	}
	return d
}

// Parse loads a host page. Missing head/body elements are synthesized by the parser.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	d := &Document{
		tree:   Tree{Root: root},
		window: NewWindow(),
	}
	d.tree.Head = findAtom(root, atom.Head)
	d.tree.Body = findAtom(root, atom.Body)
	return d, nil
}

// Window returns the page-global registry.
func (d *Document) Window() *Window { return d.window }

// Mutate runs fn with exclusive access to the tree.
func (d *Document) Mutate(fn func(t Tree) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.tree)
}

// Exists reports whether selector matches a live element.
func (d *Document) Exists(selector string) (bool, error) {
	sel, err := compile(selector)
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return cascadia.Query(d.tree.Root, sel) != nil, nil
}

// SetInnerHTML replaces the children of the first element matching selector
// with the parsed markup.
func (d *Document) SetInnerHTML(selector, markup string) error {
	sel, err := compile(selector)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	target := cascadia.Query(d.tree.Root, sel)
	if target == nil {
		return sdkerr.DOMContract("no element matches %q", selector)
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), target)
	if err != nil {
		return err
	}

	removeChildren(target)
	for _, n := range nodes {
		target.AppendChild(n)
	}
	return nil
}

// ClearInner removes every child of the first element matching selector.
func (d *Document) ClearInner(selector string) error {
	sel, err := compile(selector)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	target := cascadia.Query(d.tree.Root, sel)
	if target == nil {
		return sdkerr.DOMContract("no element matches %q", selector)
	}
	removeChildren(target)
	return nil
}

// InnerHTML serializes the children of the first element matching selector.
func (d *Document) InnerHTML(selector string) (string, error) {
	sel, err := compile(selector)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	target := cascadia.Query(d.tree.Root, sel)
	if target == nil {
		return "", sdkerr.DOMContract("no element matches %q", selector)
	}
	return InnerHTML(target)
}

// Count returns how many elements match selector.
func (d *Document) Count(selector string) (int, error) {
	sel, err := compile(selector)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return len(cascadia.QueryAll(d.tree.Root, sel)), nil
}

// Render writes the whole page.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.tree.Root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func compile(selector string) (cascadia.Sel, error) {
	if strings.TrimSpace(selector) == "" {
		return nil, sdkerr.DOMContract("empty selector")
	}
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, sdkerr.DOMContract("invalid selector %q: %v", selector, err)
	}
	return sel, nil
}
