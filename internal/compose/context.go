package compose

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/sitesmith/internal/scope"
)

// ContentSection is the reserved section holding a page's un-sectioned output
// while its layout runs.
const ContentSection = "content"

// markdownSection is converted and inlined when it closes.
const markdownSection = "markdown"

type section struct {
	name string
	text strings.Builder
}

// chainState is shared by every Context of one root page.
type chainState struct {
	sections []*section
	// open is the section currently open anywhere in the chain. Includes
	// see it so a section cannot nest across a file boundary.
	open        *section
	diagnostics []Diagnostic
	layouts     []string
}

// Context is the per-activation composition record. A root page gets a fresh
// Context from NewContext; includes and layouts derive children that share
// its section list and diagnostics.
type Context struct {
	File  string
	Root  string
	Scope *scope.Stack
	// DefaultLayout is a layout path applied when the root file requests none.
	DefaultLayout string

	shared   *chainState
	chain    []string
	embedded bool
}

// NewContext starts a composition chain at the root file.
func NewContext(root string, stack *scope.Stack) *Context {
	return &Context{
		File:   root,
		Root:   root,
		Scope:  stack,
		shared: &chainState{},
	}
}

// child derives a context for file. Embedded passes never apply layouts.
func (c *Context) child(file string, embedded bool) *Context {
	return &Context{
		File:     file,
		Root:     c.Root,
		Scope:    c.Scope,
		shared:   c.shared,
		chain:    append(slices.Clone(c.chain), c.File),
		embedded: embedded,
	}
}

// active reports whether path is already open in this chain.
func (c *Context) active(path string) bool {
	return path == c.File || slices.Contains(c.chain, path)
}

// Diagnostics returns the faults recorded for the whole chain.
func (c *Context) Diagnostics() []Diagnostic {
	return slices.Clone(c.shared.diagnostics)
}

// Layouts returns the layout files applied, outermost last.
func (c *Context) Layouts() []string {
	return slices.Clone(c.shared.layouts)
}

// Section concatenates every section named name, in encounter order.
func (c *Context) Section(name string) (string, bool) {
	var b strings.Builder
	found := false
	for _, s := range c.shared.sections {
		if sameName(s.name, name) {
			b.WriteString(s.text.String())
			found = true
		}
	}
	return b.String(), found
}

// SectionNames lists visible sections in encounter order without duplicates.
func (c *Context) SectionNames() []string {
	var names []string
	for _, s := range c.shared.sections {
		if !slices.ContainsFunc(names, func(n string) bool { return sameName(n, s.name) }) {
			names = append(names, s.name)
		}
	}
	return names
}

// setContent replaces the reserved content section.
func (c *Context) setContent(text string) {
	for _, s := range c.shared.sections {
		if s.name == ContentSection {
			s.text.Reset()
			s.text.WriteString(text)
			return
		}
	}
	s := &section{name: ContentSection}
	s.text.WriteString(text)
	c.shared.sections = append(c.shared.sections, s)
}

func (c *Context) record(d Diagnostic) {
	c.shared.diagnostics = append(c.shared.diagnostics, d)
}

// sameName compares section names case-insensitively.
func sameName(a, b string) bool {
	if a == b {
		return true
	}
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
