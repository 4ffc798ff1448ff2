package directive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantFound    bool
		wantComplete bool
		wantBody     string
	}{
		{"none", "plain <b>text</b>", false, false, ""},
		{"simple", "a {{ include x.html }} b", true, true, "include x.html"},
		{"closer inside quotes", `{{ $(x) = "a }} b" }}`, true, true, `$(x) = "a }} b"`},
		{"unbalanced quote falls back", `{{ say "oops }} tail`, true, true, `say "oops`},
		{"unterminated", "{{ include", true, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, found, complete := Next(tt.text, 0)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantComplete, complete)
			assert.Equal(t, tt.wantBody, span.Body)
		})
	}
}

func TestHasUnclosed(t *testing.T) {
	assert.False(t, HasUnclosed("no directives"))
	assert.False(t, HasUnclosed("{{ a }} and {{ b }}"))
	assert.True(t, HasUnclosed("{{ a }} and {{ include"))
	assert.False(t, HasUnclosed("{{ include\n  file.html }}"))
}

func TestReplace(t *testing.T) {
	out := Replace("x {{ a }} y {{ b }} {{ c", func(span Span) string {
		return strings.ToUpper(span.Body)
	})
	assert.Equal(t, "x A y B {{ c", out)
}

func TestReplace_DoesNotRescan(t *testing.T) {
	calls := 0
	out := Replace("{{ a }}", func(Span) string {
		calls++
		return "{{ a }}"
	})
	require.Equal(t, 1, calls)
	assert.Equal(t, "{{ a }}", out)
}

func TestSpanRaw(t *testing.T) {
	text := "pre {{ x }} post"
	span, _, _ := Next(text, 0)
	assert.Equal(t, "{{ x }}", span.Raw(text))
}
