// Package scope implements the variable scope stack used during composition.
package scope

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/directive"
)

// Frame is one level of the stack. Keys are unique; the last write wins.
type Frame map[string]string

// Stack is an ordered stack of frames. It never holds fewer than one frame.
// A Stack is owned by a single composition at a time and is not safe for
// concurrent use.
type Stack struct {
	frames []Frame
}

// New returns a stack holding one empty frame.
func New() *Stack {
	return &Stack{frames: []Frame{{}}}
}

// Push adds an empty frame on top.
func (s *Stack) Push() {
	s.frames = append(s.frames, Frame{})
}

// Pop removes the top frame. The bottom frame is never removed.
func (s *Stack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth returns the number of frames.
func (s *Stack) Depth() int { return len(s.frames) }

// Define writes name into the top frame.
func (s *Stack) Define(name, value string) {
	s.frames[len(s.frames)-1][name] = value
}

// Lookup searches frames top to bottom. Undefined names resolve to "".
func (s *Stack) Lookup(name string) string {
	value, _ := s.Get(name)
	return value
}

// Get is Lookup that also reports whether name is defined anywhere.
func (s *Stack) Get(name string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}
	return "", false
}

// LoadInitial seeds the bottom frame from `$(name) = "value"` lines.
// Blank lines and lines starting with # are skipped. References to earlier
// variables inside a value are expanded. It returns the number of variables
// defined and must be called before any page is composed.
func (s *Stack) LoadInitial(r io.Reader) (int, error) {
	bottom := s.frames[0]
	count := 0
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, ok := parseInitialLine(line)
		if !ok {
			return count, fmt.Errorf("line %d: expected name = \"value\", got %q", lineNo, line)
		}
		bottom[a.Name] = directive.ExpandRefs(a.Value, func(name string) string { return bottom[name] })
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read variables: %w", err)
	}
	return count, nil
}

// parseInitialLine accepts both `$(name) = "v"` and the bare `name = "v"` form.
func parseInitialLine(line string) (directive.Assignment, bool) {
	if a, ok := directive.ParseAssignment(line); ok {
		return a, true
	}
	tokens := directive.Tokenize(line)
	if len(tokens) != 3 || tokens[0].Kind != directive.Word || !tokens[1].Is("=") || tokens[2].Kind != directive.String {
		return directive.Assignment{}, false
	}
	return directive.Assignment{Name: tokens[0].Text, Value: tokens[2].Text}, true
}

// Dump renders every frame, deepest first, one variable per line.
func (s *Stack) Dump() string {
	var b strings.Builder
	for i, frame := range s.frames {
		fmt.Fprintf(&b, "frame %d (%d vars)\n", i, len(frame))
		names := make([]string, 0, len(frame))
		for name := range frame {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  [%d] %s = %q\n", i, name, frame[name])
		}
	}
	return b.String()
}
