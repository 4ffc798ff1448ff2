// Package markdown converts Markdown to HTML with goldmark and shields
// directives from the converter so they survive into composition.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter renders Markdown to HTML. It is stateless after construction and
// safe for concurrent and re-entrant use.
type Converter struct {
	md goldmark.Markdown
}

// New returns a Converter with GFM, footnotes, auto heading IDs and raw HTML
// passthrough enabled.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Convert renders src as HTML.
func (c *Converter) Convert(src string) (string, error) {
	var buf bytes.Buffer
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	if err := c.md.Convert([]byte(src), &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	return buf.String(), nil
}

// ConvertPage converts a Markdown root page body while keeping its directives
// intact for the interpreter that runs afterwards.
func (c *Converter) ConvertPage(src string) (string, error) {
	protected, restore := Protect(src)
	out, err := c.Convert(protected)
	if err != nil {
		return "", err
	}
	return restore(out), nil
}

var inlinePlaceholderPattern = regexp.MustCompile(`SITESMITHDIRECTIVE\d+X`)

// headingIDs generates auto heading IDs from heading text with directive
// placeholders removed, so IDs never carry placeholder names.
type headingIDs struct {
	seen map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{seen: make(map[string]bool)}
}

func (h *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	text := inlinePlaceholderPattern.ReplaceAllString(string(value), "")
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}
	id := b.String()
	if id == "" {
		id = "heading"
	}
	base := id
	for i := 1; h.seen[id]; i++ {
		id = fmt.Sprintf("%s-%d", base, i)
	}
	h.seen[id] = true
	return []byte(id)
}

func (h *headingIDs) Put(value []byte) {
	h.seen[string(value)] = true
}
