package directive

import (
	"strings"
)

// Directive is a parsed directive body.
type Directive struct {
	Command string
	Args    []Token
}

// Parse tokenizes a directive body into a command and its arguments.
func Parse(body string) Directive {
	tokens := Tokenize(body)
	if len(tokens) == 0 {
		return Directive{}
	}
	return Directive{Command: tokens[0].Text, Args: tokens[1:]}
}

// Tokens returns the command followed by the arguments.
func (d Directive) Tokens() []Token {
	if d.Command == "" {
		return nil
	}
	return append([]Token{{Kind: Word, Text: d.Command}}, d.Args...)
}

// Assignment is a $(name) = "value" pair.
type Assignment struct {
	Name  string
	Value string
}

// Ternary is $(name) == "check" ? "then" : "else" (or != instead of ==).
type Ternary struct {
	Name   string
	Negate bool
	Check  string
	Then   string
	Else   string
}

// Variable returns the name inside a $(name) reference.
func Variable(text string) (string, bool) {
	if !strings.HasPrefix(text, "$(") || !strings.HasSuffix(text, ")") || len(text) < 4 {
		return "", false
	}
	name := strings.TrimSpace(text[2 : len(text)-1])
	if name == "" || strings.ContainsAny(name, "() \t") {
		return "", false
	}
	return name, true
}

// Assignment reports whether the directive is exactly $(name) = "value".
func (d Directive) Assignment() (Assignment, bool) {
	tokens := d.Tokens()
	if len(tokens) != 3 || !tokens[1].Is("=") || tokens[2].Kind != String {
		return Assignment{}, false
	}
	name, ok := Variable(tokens[0].Text)
	if !ok {
		return Assignment{}, false
	}
	return Assignment{Name: name, Value: tokens[2].Text}, true
}

// Ternary reports whether the directive is a ternary expression.
func (d Directive) Ternary() (Ternary, bool) {
	t := d.Tokens()
	if len(t) != 7 || !(t[1].Is("==") || t[1].Is("!=")) || !t[3].Is("?") || !t[5].Is(":") {
		return Ternary{}, false
	}
	name, ok := Variable(t[0].Text)
	if !ok || t[2].Kind == Op || t[4].Kind == Op || t[6].Kind == Op {
		return Ternary{}, false
	}
	return Ternary{
		Name:   name,
		Negate: t[1].Is("!="),
		Check:  t[2].Text,
		Then:   t[4].Text,
		Else:   t[6].Text,
	}, true
}

// Evaluate picks the branch for the resolved variable value.
func (t Ternary) Evaluate(value string) string {
	if (value == t.Check) != t.Negate {
		return t.Then
	}
	return t.Else
}

// SplitArgs separates positional arguments from trailing $(name) = "value"
// assignments, e.g. for `include header.html $(title) = "Home"`.
func SplitArgs(args []Token) (positional []string, assigns []Assignment) {
	for i := 0; i < len(args); i++ {
		if i+2 < len(args) && args[i+1].Is("=") && args[i+2].Kind == String {
			if name, ok := Variable(args[i].Text); ok {
				assigns = append(assigns, Assignment{Name: name, Value: args[i+2].Text})
				i += 2
				continue
			}
		}
		positional = append(positional, args[i].Text)
	}
	return positional, assigns
}

// ParseAssignment recognizes a whole source line of the form
// $(name) = "value" (single or double quotes).
func ParseAssignment(line string) (Assignment, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "$(") {
		return Assignment{}, false
	}
	return Parse(trimmed).Assignment()
}

// IsVerbatimStart reports whether line is a lone {{ verbatim }} marker.
func IsVerbatimStart(line string) bool { return isMarker(line, "verbatim") }

// IsVerbatimEnd reports whether line is a lone {{ endverbatim }} marker.
func IsVerbatimEnd(line string) bool { return isMarker(line, "endverbatim") }

func isMarker(line, name string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, Opener) || !strings.HasSuffix(trimmed, Closer) {
		return false
	}
	body := trimmed[len(Opener) : len(trimmed)-len(Closer)]
	return strings.EqualFold(strings.TrimSpace(body), name)
}

// ExpandRefs replaces every $(name) reference in text with lookup(name).
func ExpandRefs(text string, lookup func(name string) string) string {
	if !strings.Contains(text, "$(") {
		return text
	}
	var b strings.Builder
	for {
		start := strings.Index(text, "$(")
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := strings.IndexByte(text[start:], ')')
		if end < 0 {
			b.WriteString(text)
			return b.String()
		}
		ref := text[start : start+end+1]
		b.WriteString(text[:start])
		if name, ok := Variable(ref); ok {
			b.WriteString(lookup(name))
		} else {
			b.WriteString(ref)
		}
		text = text[start+end+1:]
	}
}
