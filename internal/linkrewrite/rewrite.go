// Package linkrewrite adjusts relative link and asset paths of a composed
// page according to how deeply the page is nested below its category root.
package linkrewrite

import (
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Options controls one rewrite.
type Options struct {
	// Depth is the number of directory segments between the category root
	// and the page.
	Depth int
	// AssetDirs are directory names whose quoted "dir/..." strings are
	// prefixed in the asset pass.
	AssetDirs []string
	// MarkdownLinks renames relative .md/.markdown hyperlink targets to .html.
	MarkdownLinks bool
}

// Rewrite applies the hyperlink pass and then the asset pass. The order
// matters: an href already prefixed by the first pass no longer starts with
// an asset directory and is left alone by the second.
func Rewrite(src string, opts Options) string {
	if opts.Depth <= 0 && !opts.MarkdownLinks {
		return src
	}
	prefix := strings.Repeat("../", max(opts.Depth, 0))
	out := rewriteHrefs(src, prefix, opts.MarkdownLinks)
	if prefix != "" {
		out = rewriteAssets(out, prefix, opts.AssetDirs)
	}
	return out
}

// rewriteHrefs re-serializes only tags whose href changed; every other token
// is copied byte for byte.
func rewriteHrefs(src, prefix string, markdownLinks bool) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src) + 64)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}

		tok := z.Token()
		changed := false
		for i, attr := range tok.Attr {
			if attr.Key != "href" || attr.Namespace != "" {
				continue
			}
			if v, ok := rewriteHref(attr.Val, prefix, markdownLinks); ok {
				tok.Attr[i].Val = v
				changed = true
			}
		}
		if changed {
			b.WriteString(tok.String())
		} else {
			b.WriteString(raw)
		}
	}
}

func rewriteHref(v, prefix string, markdownLinks bool) (string, bool) {
	if !IsRelative(v) {
		return "", false
	}
	out := strings.ReplaceAll(v, `\`, "/")
	if markdownLinks {
		out = renameMarkdown(out)
	}
	out = prefix + out
	return out, out != v
}

// IsRelative reports whether a link target is relative to the page: not
// empty, not a fragment, not root-absolute and without a URL scheme.
func IsRelative(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "/") || strings.HasPrefix(v, `\`) {
		return false
	}
	return !hasScheme(v)
}

func hasScheme(v string) bool {
	colon := strings.IndexByte(v, ':')
	if colon <= 0 {
		return false
	}
	if stop := strings.IndexAny(v, "/?#"); stop >= 0 && stop < colon {
		return false
	}
	for i := 0; i < colon; i++ {
		c := v[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !(c >= '0' && c <= '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func renameMarkdown(v string) string {
	target, suffix := v, ""
	if i := strings.IndexAny(v, "?#"); i >= 0 {
		target, suffix = v[:i], v[i:]
	}
	switch strings.ToLower(path.Ext(target)) {
	case ".md", ".markdown":
		return strings.TrimSuffix(target, path.Ext(target)) + ".html" + suffix
	}
	return v
}

// rewriteAssets prefixes every quoted string that starts with an asset
// directory name followed by a slash.
func rewriteAssets(src, prefix string, dirs []string) string {
	if len(dirs) == 0 {
		return src
	}
	var b strings.Builder
	b.Grow(len(src) + 64)
	for i := 0; i < len(src); i++ {
		c := src[i]
		b.WriteByte(c)
		if c != '"' && c != '\'' {
			continue
		}
		rest := src[i+1:]
		for _, dir := range dirs {
			if dir != "" && strings.HasPrefix(rest, dir+"/") {
				b.WriteString(prefix)
				break
			}
		}
	}
	return b.String()
}
