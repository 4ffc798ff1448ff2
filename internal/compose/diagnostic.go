package compose

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
)

// Kind names a composition fault.
type Kind string

const (
	UnresolvedInclude     Kind = "UnresolvedInclude"
	IllegalSectionNesting Kind = "IllegalSectionNesting"
	ReservedSectionName   Kind = "ReservedSectionName"
	CyclicInclude         Kind = "CyclicInclude"
)

// Diagnostic is a fault recorded during composition. Paths are relative to
// the input root.
type Diagnostic struct {
	Kind      Kind
	Message   string
	File      string
	Line      int
	Requested string
	Paths     []string // attempted candidates, or the open chain for CyclicInclude
}

// HTML renders the inline diagnostic block placed in the page.
func (d Diagnostic) HTML() string {
	var b strings.Builder
	kind := html.EscapeString(string(d.Kind))
	fmt.Fprintf(&b, `<div class="sitesmith-diagnostic" data-kind="%s"><strong>%s</strong>: %s (%s:%d)`,
		kind, kind, html.EscapeString(d.Message), html.EscapeString(d.File), d.Line)
	if len(d.Paths) > 0 {
		b.WriteString("<ul>")
		for _, p := range d.Paths {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(p))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</div>")
	return b.String()
}

// Err converts the diagnostic into a compose-category warning.
func (d Diagnostic) Err() *errors.ClassifiedError {
	b := errors.ComposeError(d.Message).
		WithContext("kind", string(d.Kind)).
		WithContext("file", d.File).
		WithContext("line", d.Line)
	if d.Requested != "" {
		b = b.WithContext("requested", d.Requested)
	}
	if len(d.Paths) > 0 {
		b = b.WithContext("paths", strings.Join(d.Paths, ", "))
	}
	return b.Build()
}
