package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/intelli-widgets/internal/dom"
)

func TestParseHeadOrderIsScriptsStylesLinks(t *testing.T) {
	markup := `
<link rel="stylesheet" href="/a.css">
<style>.a{}</style>
<script>first()</script>
<script src="/one.js"></script>
<link rel="preload" href="/b.woff">
<div class="intelli-widget" id="intelli-widget-id">
  <style>.b{}</style>
  <script src="/two.js"></script>
  <script>second("intelli-widget-id")</script>
</div>`

	c, err := Parse(strings.NewReader(markup))
	require.NoError(t, err)

	var got []string
	for _, n := range c.Head {
		switch n.Data {
		case "script":
			src, _ := dom.Attr(n, "src")
			got = append(got, "script:"+src)
		case "style":
			got = append(got, "style:"+dom.TextContent(n))
		case "link":
			href, _ := dom.Attr(n, "href")
			got = append(got, "link:"+href)
		}
	}

	assert.Equal(t, []string{
		"script:/one.js",
		"script:/two.js",
		"style:.a{}",
		"style:.b{}",
		"link:/a.css",
		"link:/b.woff",
	}, got)

	assert.Equal(t, []string{"first()", `second("intelli-widget-id")`}, c.BodyScripts)

	require.NotNil(t, c.Root)
	id, _ := dom.Attr(c.Root, "id")
	assert.Equal(t, "intelli-widget-id", id)
}

func TestParseFirstRootWins(t *testing.T) {
	c, err := Parse(strings.NewReader(
		`<section><div class="x intelli-widget" id="one"></div></section><div class="intelli-widget" id="two"></div>`))
	require.NoError(t, err)
	require.NotNil(t, c.Root)

	id, _ := dom.Attr(c.Root, "id")
	assert.Equal(t, "one", id)
}

func TestParseWithoutRoot(t *testing.T) {
	c, err := Parse(strings.NewReader(`<p>no marker</p><script src="/x.js"></script>`))
	require.NoError(t, err)

	assert.Nil(t, c.Root)
	assert.Len(t, c.Head, 1)

	markup, err := c.Markup()
	require.NoError(t, err)
	assert.Empty(t, markup)
}
