// internal/content/types.go
package content

import (
	"golang.org/x/net/html"

	"github.com/tamzrod/intelli-widgets/internal/dom"
)

// RootClass marks the primary content element in widget markup.
const RootClass = "intelli-widget"

// Identity addresses one widget on the content API. Never mutated.
type Identity struct {
	Name           string
	Variation      string
	ThemeOverrides map[string]any
	Config         map[string]any
	BaseURL        string // already carries the API version segment
	AuthToken      string
	ContentVersion int
}

// Appearance is the appearance block of the request body.
type Appearance struct {
	Theme     map[string]any `json:"theme"`
	Language  *string        `json:"language"`
	Variation string         `json:"variation"`
}

// RequestBody is the JSON body of a widget fetch. Built fresh per fetch.
type RequestBody struct {
	Appearance Appearance     `json:"appearance"`
	Data       map[string]any `json:"data"`
}

// NewRequestBody builds the body for id at locale. Empty locale encodes as null.
func NewRequestBody(id Identity, locale string) RequestBody {
	body := RequestBody{
		Appearance: Appearance{
			Theme:     id.ThemeOverrides,
			Variation: id.Variation,
		},
		Data: id.Config,
	}
	if body.Appearance.Theme == nil {
		body.Appearance.Theme = map[string]any{}
	}
	if body.Data == nil {
		body.Data = map[string]any{}
	}
	if locale != "" {
		l := locale
		body.Appearance.Language = &l
	}
	return body
}

// Content is one parsed widget fragment.
// Head holds scripts with src, then styles, then links.
// Root is nil when the markup has no element carrying RootClass.
type Content struct {
	Head        []*html.Node
	BodyScripts []string
	Root        *html.Node
}

// Markup serializes the root element. Empty when Root is nil.
func (c *Content) Markup() (string, error) {
	if c == nil || c.Root == nil {
		return "", nil
	}
	return dom.OuterHTML(c.Root)
}
