// internal/content/parse.go
package content

import (
	"io"

	"golang.org/x/net/html"

	"github.com/tamzrod/intelli-widgets/internal/dom"
)

// Parse decomposes a widget fragment. It performs no injection.
//
// The head order is fixed: scripts with src, styles, links. Document
// order is kept only within each group.
func Parse(r io.Reader) (*Content, error) {
	nodes, err := html.ParseFragment(r, dom.Element("body"))
	if err != nil {
		return nil, err
	}

	var (
		srcScripts []*html.Node
		styles     []*html.Node
		links      []*html.Node
		c          = &Content{}
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script":
				if _, ok := dom.Attr(n, "src"); ok {
					srcScripts = append(srcScripts, n)
				} else {
					c.BodyScripts = append(c.BodyScripts, dom.TextContent(n))
				}
			case "style":
				styles = append(styles, n)
			case "link":
				links = append(links, n)
			}

			if c.Root == nil && dom.HasClass(n, RootClass) {
				c.Root = n
			}
		}
		for k := n.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	c.Head = make([]*html.Node, 0, len(srcScripts)+len(styles)+len(links))
	c.Head = append(c.Head, srcScripts...)
	c.Head = append(c.Head, styles...)
	c.Head = append(c.Head, links...)
	return c, nil
}
