package directive

import "strings"

const (
	// Opener starts a directive.
	Opener = "{{"
	// Closer ends a directive.
	Closer = "}}"
)

// Span locates one directive inside a piece of text.
type Span struct {
	Start int    // offset of the opener
	End   int    // offset just past the closer
	Body  string // text between opener and closer, trimmed
}

// Raw returns the directive text including markers.
func (s Span) Raw(text string) string { return text[s.Start:s.End] }

// Next finds the first directive starting at or after from.
//
// found is false when no opener remains. complete is false when an opener was
// found but no closer follows it; Span.Start is still set in that case.
func Next(text string, from int) (span Span, found, complete bool) {
	if from >= len(text) {
		return Span{}, false, false
	}
	rel := strings.Index(text[from:], Opener)
	if rel < 0 {
		return Span{}, false, false
	}
	start := from + rel
	bodyStart := start + len(Opener)

	end := closerIndex(text, bodyStart)
	if end < 0 {
		return Span{Start: start}, true, false
	}
	return Span{
		Start: start,
		End:   end + len(Closer),
		Body:  strings.TrimSpace(text[bodyStart:end]),
	}, true, true
}

// closerIndex returns the offset of the closer matching an opener whose body
// starts at from. Closers inside quoted arguments are skipped; if a quote is
// never terminated the first plain closer wins.
func closerIndex(text string, from int) int {
	var quote byte
	for i := from; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(text[i:], Closer):
			return i
		}
	}
	if quote != 0 {
		if idx := strings.Index(text[from:], Closer); idx >= 0 {
			return from + idx
		}
	}
	return -1
}

// HasUnclosed reports whether text contains an opener with no closer after it.
// The interpreter uses it to join multi-line directives.
func HasUnclosed(text string) bool {
	pos := 0
	for {
		span, found, complete := Next(text, pos)
		if !found {
			return false
		}
		if !complete {
			return true
		}
		pos = span.End
	}
}

// Replace substitutes every complete directive in text with fn's result.
// Replacement text is not rescanned. An unterminated opener and everything
// after it are copied unchanged.
func Replace(text string, fn func(span Span) string) string {
	var b strings.Builder
	pos := 0
	for {
		span, found, complete := Next(text, pos)
		if !found || !complete {
			b.WriteString(text[pos:])
			return b.String()
		}
		b.WriteString(text[pos:span.Start])
		b.WriteString(fn(span))
		pos = span.End
	}
}
