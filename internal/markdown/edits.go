package markdown

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// edit replaces src[start:end] with replacement.
type edit struct {
	start       int
	end         int
	replacement string
}

// applyEdits applies non-overlapping edits given as offsets into src. Edits
// are applied back to front so earlier offsets stay valid.
func applyEdits(src string, edits []edit) (string, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start > sorted[j].start })

	for i, e := range sorted {
		if e.start < 0 || e.end < e.start || e.end > len(src) {
			return "", fmt.Errorf("invalid edit[%d]: range %d..%d out of bounds", i, e.start, e.end)
		}
		if i > 0 && e.end > sorted[i-1].start {
			return "", errors.New("invalid edits: overlapping ranges")
		}
	}

	out := src
	for _, e := range sorted {
		var b strings.Builder
		b.Grow(len(out) - (e.end - e.start) + len(e.replacement))
		b.WriteString(out[:e.start])
		b.WriteString(e.replacement)
		b.WriteString(out[e.end:])
		out = b.String()
	}
	return out, nil
}
