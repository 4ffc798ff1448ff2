package markdown

import (
	"fmt"
	"html"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/directive"
)

const (
	blockPlaceholder  = "<!--sitesmith-directive-%d-->"
	inlinePlaceholder = "SITESMITHDIRECTIVE%dX"
)

// Protect replaces directives, assignment lines and verbatim blocks with
// placeholders that the converter passes through untouched. The returned
// function swaps the originals back into converted output.
//
// A line holding nothing but directives at the start of a block becomes an
// HTML comment, which the converter emits as a raw block. Any other directive
// becomes an inline word so the surrounding paragraph is still converted.
func Protect(src string) (string, func(string) string) {
	var (
		originals []string
		formats   []string
		edits     []edit
	)
	placeholder := func(start, end int, format string) {
		edits = append(edits, edit{start: start, end: end, replacement: fmt.Sprintf(format, len(originals))})
		originals = append(originals, src[start:end])
		formats = append(formats, format)
	}

	lines := lineOffsets(src)
	boundary := true
	for i := 0; i < len(lines); i++ {
		start, end := lines[i][0], lines[i][1]
		line := src[start:end]

		if strings.TrimSpace(line) == "" {
			boundary = true
			continue
		}
		if directive.IsVerbatimStart(line) {
			j := i
			for j+1 < len(lines) && !directive.IsVerbatimEnd(src[lines[j][0]:lines[j][1]]) {
				j++
			}
			placeholder(start, lines[j][1], blockPlaceholder)
			i = j
			boundary = true
			continue
		}
		if _, ok := directive.ParseAssignment(line); ok {
			placeholder(start, end, blockPlaceholder)
			boundary = true
			continue
		}

		for directive.HasUnclosed(src[start:end]) && i+1 < len(lines) {
			i++
			end = lines[i][1]
		}
		var spans []directive.Span
		pos := start
		for {
			span, found, complete := directive.Next(src[:end], pos)
			if !found || !complete {
				break
			}
			spans = append(spans, span)
			pos = span.End
		}

		format := inlinePlaceholder
		if boundary && onlyDirectives(src, start, end, spans) {
			format = blockPlaceholder
		}
		for _, span := range spans {
			placeholder(span.Start, span.End, format)
		}
		// An ATX heading is a single-line block.
		boundary = format == blockPlaceholder && len(spans) > 0 || strings.HasPrefix(strings.TrimLeft(line, " "), "#")
	}

	out, err := applyEdits(src, edits)
	if err != nil {
		return src, func(s string) string { return s }
	}

	pairs := make([]string, 0, 4*len(originals))
	for n, orig := range originals {
		ph := fmt.Sprintf(formats[n], n)
		pairs = append(pairs, ph, orig)
		if formats[n] == blockPlaceholder {
			// Comments that landed in code come back HTML-escaped.
			pairs = append(pairs, html.EscapeString(ph), html.EscapeString(orig))
		}
	}
	replacer := strings.NewReplacer(pairs...)
	return out, replacer.Replace
}

// onlyDirectives reports whether src[start:end] is whitespace once spans are
// removed.
func onlyDirectives(src string, start, end int, spans []directive.Span) bool {
	if len(spans) == 0 {
		return false
	}
	pos := start
	for _, span := range spans {
		if strings.TrimSpace(src[pos:span.Start]) != "" {
			return false
		}
		pos = span.End
	}
	return strings.TrimSpace(src[pos:end]) == ""
}

// lineOffsets returns [start, end) offsets of each line without its newline.
func lineOffsets(src string) [][2]int {
	var lines [][2]int
	start := 0
	for start <= len(src) {
		idx := strings.IndexByte(src[start:], '\n')
		if idx < 0 {
			if start < len(src) {
				lines = append(lines, [2]int{start, len(src)})
			}
			break
		}
		end := start + idx
		if end > start && src[end-1] == '\r' {
			end--
		}
		lines = append(lines, [2]int{start, end})
		start += idx + 1
	}
	return lines
}
