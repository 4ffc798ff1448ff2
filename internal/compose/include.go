package compose

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/directive"
	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/resolve"
)

// include resolves name and expands it under a fresh scope frame.
func (e *Engine) include(c *Context, name string, assigns []directive.Assignment, lineNo int) string {
	name = e.expandRefs(c, name)
	res := e.resolver.Resolve(name, e.includeDirs(c)...)
	if !res.Found {
		return e.unresolved(c, res, lineNo)
	}
	if c.active(res.Path) {
		return e.cyclic(c, res.Path, lineNo)
	}

	c.Scope.Push()
	defer c.Scope.Pop()
	for _, a := range assigns {
		c.Scope.Define(a.Name, e.expandRefs(c, a.Value))
	}

	e.logger.Debug("Including file", logfields.File(e.display(c.File)), logfields.Include(e.display(res.Path)))
	text := e.reader.Read(res.Path)
	switch strings.ToLower(filepath.Ext(res.Path)) {
	case ".md", ".markdown":
		converted, err := e.conv.Convert(text)
		if err != nil {
			e.logger.Warn("Markdown include conversion failed", logfields.Include(e.display(res.Path)), logfields.Error(err))
			return strings.TrimSuffix(text, "\n")
		}
		return strings.TrimSuffix(converted, "\n")
	case ".html", ".htm":
		return strings.TrimSuffix(e.run(c.child(res.Path, true), text), "\n")
	default:
		return strings.TrimSuffix(text, "\n")
	}
}

// requestLayout records a layout for the end of the pass. Only the root
// chain applies layouts.
func (e *Engine) requestLayout(c *Context, p *pass, name string, assigns []directive.Assignment, lineNo int) {
	if c.embedded {
		e.logger.Debug("Layout directive ignored in embedded file",
			logfields.File(e.display(c.File)), logfields.Line(lineNo), logfields.Layout(name))
		return
	}
	p.layout = e.expandRefs(c, name)
	p.layoutLine = lineNo
	p.layoutAssigns = assigns
}

func (e *Engine) applyLayout(c *Context, p *pass, out string) string {
	res := e.resolver.Resolve(p.layout, e.layoutDirs(c)...)
	if !res.Found {
		return out + e.unresolved(c, res, p.layoutLine) + "\n"
	}
	for _, a := range p.layoutAssigns {
		c.Scope.Define(a.Name, e.expandRefs(c, a.Value))
	}
	return e.wrap(c, res.Path, p.layoutLine, out)
}

func (e *Engine) applyDefaultLayout(c *Context, out string) string {
	res := e.resolver.Resolve(filepath.Base(c.DefaultLayout), filepath.Dir(c.DefaultLayout))
	if !res.Found {
		return out
	}
	return e.wrap(c, res.Path, 0, out)
}

// wrap stores out as the content section and runs the layout over it.
func (e *Engine) wrap(c *Context, layout string, lineNo int, out string) string {
	if c.active(layout) {
		return out + e.cyclic(c, layout, lineNo) + "\n"
	}
	c.setContent(out)
	c.shared.layouts = append(c.shared.layouts, layout)
	e.logger.Debug("Applying layout", logfields.Page(e.display(c.Root)), logfields.Layout(e.display(layout)))
	return e.run(c.child(layout, false), e.reader.Read(layout))
}

func (e *Engine) unresolved(c *Context, res resolve.Result, lineNo int) string {
	paths := make([]string, len(res.Attempted))
	for i, p := range res.Attempted {
		paths[i] = e.display(p)
	}
	return e.report(c, Diagnostic{
		Kind:      UnresolvedInclude,
		Message:   fmt.Sprintf("cannot resolve %q", res.Requested),
		Line:      lineNo,
		Requested: res.Requested,
		Paths:     paths,
	})
}

func (e *Engine) cyclic(c *Context, path string, lineNo int) string {
	chain := make([]string, 0, len(c.chain)+2)
	for _, p := range c.chain {
		chain = append(chain, e.display(p))
	}
	chain = append(chain, e.display(c.File), e.display(path))
	return e.report(c, Diagnostic{
		Kind:      CyclicInclude,
		Message:   fmt.Sprintf("%q is already open in this composition chain", e.display(path)),
		Line:      lineNo,
		Requested: e.display(path),
		Paths:     chain,
	})
}
