package directive

import (
	"strings"
)

// Kind classifies a token of a directive body.
type Kind int

const (
	// Word is a bare run of characters such as a command, file name or $(name).
	Word Kind = iota
	// String is a quoted literal; Text holds the unquoted, unescaped value.
	String
	// Op is one of = == != ? :
	Op
)

// Token is one element of a directive body.
type Token struct {
	Kind Kind
	Text string
}

func (t Token) String() string {
	if t.Kind == String {
		return `"` + strings.ReplaceAll(t.Text, `"`, `\"`) + `"`
	}
	return t.Text
}

// Is reports whether t is the operator op.
func (t Token) Is(op string) bool { return t.Kind == Op && t.Text == op }

// Tokenize splits a directive body into tokens.
func Tokenize(body string) []Token {
	var tokens []Token
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			text, next := scanQuoted(body, i)
			tokens = append(tokens, Token{Kind: String, Text: text})
			i = next
		case c == '=' && i+1 < len(body) && body[i+1] == '=':
			tokens = append(tokens, Token{Kind: Op, Text: "=="})
			i += 2
		case c == '!' && i+1 < len(body) && body[i+1] == '=':
			tokens = append(tokens, Token{Kind: Op, Text: "!="})
			i += 2
		case c == '=' || c == '?' || c == ':':
			tokens = append(tokens, Token{Kind: Op, Text: string(c)})
			i++
		default:
			start := i
			for i < len(body) && !isWordBreak(body, i) {
				i++
			}
			tokens = append(tokens, Token{Kind: Word, Text: body[start:i]})
		}
	}
	return tokens
}

func isWordBreak(body string, i int) bool {
	switch body[i] {
	case ' ', '\t', '\n', '\r', '"', '\'', '=', '?':
		return true
	case '!':
		return i+1 < len(body) && body[i+1] == '='
	}
	return false
}

// scanQuoted reads a quoted literal starting at body[start]. Backslash escapes
// the next character. An unterminated literal runs to the end of body.
func scanQuoted(body string, start int) (string, int) {
	quote := body[start]
	var b strings.Builder
	for i := start + 1; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			b.WriteByte(body[i])
			continue
		}
		if c == quote {
			return b.String(), i + 1
		}
		b.WriteByte(c)
	}
	return b.String(), len(body)
}
