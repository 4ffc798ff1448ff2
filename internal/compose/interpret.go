package compose

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitesmith/internal/directive"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
)

// pass is the state of one line-by-line run over a single file.
type pass struct {
	out      strings.Builder
	open     *section
	verbatim bool

	layout        string
	layoutLine    int
	layoutAssigns []directive.Assignment
}

// write appends text to the open section, or to the pass output.
func (p *pass) write(target *section, text string) {
	if target != nil {
		target.text.WriteString(text)
		return
	}
	p.out.WriteString(text)
}

// lineParts collects a line's text per target, in first-seen order.
type lineParts struct {
	targets []*section
	texts   []*strings.Builder
}

func (lp *lineParts) add(target *section, text string) {
	for i, t := range lp.targets {
		if t == target {
			lp.texts[i].WriteString(text)
			return
		}
	}
	b := &strings.Builder{}
	b.WriteString(text)
	lp.targets = append(lp.targets, target)
	lp.texts = append(lp.texts, b)
}

func (e *Engine) run(c *Context, text string) string {
	p := &pass{}
	lines := splitLines(text)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if p.verbatim {
			if directive.IsVerbatimEnd(line) {
				p.verbatim = false
				continue
			}
			p.write(p.open, line+"\n")
			continue
		}
		if directive.IsVerbatimStart(line) {
			p.verbatim = true
			continue
		}

		for directive.HasUnclosed(line) && i+1 < len(lines) {
			i++
			line += "\n" + lines[i]
		}

		if a, ok := directive.ParseAssignment(line); ok {
			c.Scope.Define(a.Name, e.expandRefs(c, a.Value))
			continue
		}
		e.processLine(c, p, line, lineNo)
	}

	if p.open != nil {
		e.logger.Debug("Section not closed before end of file",
			logfields.File(e.display(c.File)), slog.String("section", p.open.name))
		if tail := e.closeSection(c, p); tail != "" {
			p.write(nil, tail+"\n")
		}
	}

	out := p.out.String()
	if c.embedded {
		return out
	}
	if p.layout != "" {
		return e.applyLayout(c, p, out)
	}
	if c.DefaultLayout != "" {
		return e.applyDefaultLayout(c, out)
	}
	return out
}

// processLine expands the directives of one (possibly joined) line. A line
// that held control directives only emits targets that received visible text.
func (e *Engine) processLine(c *Context, p *pass, line string, lineNo int) {
	var parts lineParts
	control := false
	pos := 0
	for {
		span, found, complete := directive.Next(line, pos)
		if !found || !complete {
			parts.add(p.open, line[pos:])
			break
		}
		parts.add(p.open, line[pos:span.Start])
		text, isControl := e.evaluate(c, p, span.Body, lineNo)
		control = control || isControl
		parts.add(p.open, text)
		pos = span.End
	}

	for i, target := range parts.targets {
		text := parts.texts[i].String()
		if control && strings.TrimSpace(text) == "" {
			continue
		}
		p.write(target, text+"\n")
	}
}

// evaluate returns the replacement text of one directive and whether it was
// a control directive.
func (e *Engine) evaluate(c *Context, p *pass, body string, lineNo int) (string, bool) {
	d := directive.Parse(body)
	if d.Command == "" {
		return "", false
	}
	if a, ok := d.Assignment(); ok {
		if a.Name == "date" {
			return FormatDate(e.now(), a.Value), false
		}
		c.Scope.Define(a.Name, e.expandRefs(c, a.Value))
		return "", true
	}
	if t, ok := d.Ternary(); ok {
		return t.Evaluate(c.Scope.Lookup(t.Name)), false
	}

	args, assigns := directive.SplitArgs(d.Args)
	switch strings.ToLower(d.Command) {
	case "debug-vars", "dump-vars":
		return e.dumpVars(c, p), false
	case "layout":
		e.requestLayout(c, p, first(args), assigns, lineNo)
		return "", true
	case "section":
		return e.openSection(c, p, first(args), lineNo), true
	case "endsection":
		return e.closeSection(c, p), true
	case "include":
		return e.include(c, first(args), assigns, lineNo), false
	case "include-debug", "includedebug":
		if !e.debug {
			return "", false
		}
		return e.include(c, first(args), assigns, lineNo), false
	case "include-if":
		if len(args) < 2 {
			return "", false
		}
		if e.conditionValue(c, args[0]) == "" {
			return "", false
		}
		return e.include(c, args[1], assigns, lineNo), false
	}
	return e.reference(c, d.Command), false
}

// reference resolves an unrecognized command: $(name) is a variable, a bare
// word is a section name first and a variable second.
func (e *Engine) reference(c *Context, token string) string {
	if name, ok := directive.Variable(token); ok {
		if value, defined := c.Scope.Get(name); defined || name != "date" {
			return value
		}
		return FormatDate(e.now(), "yyyy-MM-dd")
	}
	if text, ok := c.Section(token); ok {
		return strings.TrimSuffix(text, "\n")
	}
	return c.Scope.Lookup(token)
}

func (e *Engine) conditionValue(c *Context, token string) string {
	if name, ok := directive.Variable(token); ok {
		return c.Scope.Lookup(name)
	}
	return c.Scope.Lookup(token)
}

func (e *Engine) expandRefs(c *Context, s string) string {
	return directive.ExpandRefs(s, c.Scope.Lookup)
}

func (e *Engine) openSection(c *Context, p *pass, name string, lineNo int) string {
	if outer := c.shared.open; outer != nil {
		return e.report(c, Diagnostic{
			Kind:      IllegalSectionNesting,
			Message:   fmt.Sprintf("section %q opened while section %q is still open", name, outer.name),
			Line:      lineNo,
			Requested: name,
		})
	}
	if name == "" {
		e.logger.Debug("Section directive without a name", logfields.File(e.display(c.File)), logfields.Line(lineNo))
		return ""
	}
	if sameName(name, ContentSection) {
		return e.report(c, Diagnostic{
			Kind:      ReservedSectionName,
			Message:   fmt.Sprintf("section name %q is reserved", name),
			Line:      lineNo,
			Requested: name,
		})
	}
	s := &section{name: name}
	if !sameName(name, markdownSection) {
		c.shared.sections = append(c.shared.sections, s)
	}
	p.open = s
	c.shared.open = s
	return ""
}

// closeSection closes the open section. A markdown section is converted,
// expanded as an embedded file and returned for the default output.
func (e *Engine) closeSection(c *Context, p *pass) string {
	s := p.open
	if s == nil {
		return ""
	}
	p.open = nil
	c.shared.open = nil
	if !sameName(s.name, markdownSection) {
		return ""
	}
	converted, err := e.conv.Convert(s.text.String())
	if err != nil {
		e.logger.Warn("Markdown section conversion failed", logfields.File(e.display(c.File)), logfields.Error(err))
		converted = s.text.String()
	}
	return strings.TrimSuffix(e.run(c.child(c.File, true), converted), "\n")
}

func (e *Engine) dumpVars(c *Context, p *pass) string {
	var b strings.Builder
	b.WriteString(`<pre class="sitesmith-vars">`)
	b.WriteString(html.EscapeString(c.Scope.Dump()))
	if names := c.SectionNames(); len(names) > 0 {
		b.WriteString("sections: ")
		b.WriteString(html.EscapeString(strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	if p.open != nil {
		b.WriteString("open section: ")
		b.WriteString(html.EscapeString(p.open.name))
		b.WriteString("\n")
	}
	b.WriteString("</pre>")
	return b.String()
}

func (e *Engine) report(c *Context, d Diagnostic) string {
	d.File = e.display(c.File)
	c.record(d)
	e.logger.Warn("Composition diagnostic",
		logfields.Kind(string(d.Kind)),
		logfields.Page(e.display(c.Root)),
		logfields.File(d.File),
		logfields.Line(d.Line),
		slog.String("message", d.Message))
	return d.HTML()
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// splitLines splits text into lines without terminators. A final newline does
// not produce an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
