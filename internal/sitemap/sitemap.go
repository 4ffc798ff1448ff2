// Package sitemap renders sitemap.xml and robots.txt.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// Namespace is the sitemap protocol schema.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// FileName is the sitemap output name at the output root.
const FileName = "sitemap.xml"

// RobotsFileName is the robots output name at the output root.
const RobotsFileName = "robots.txt"

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc string `xml:"loc"`
}

// Render builds a sitemap listing each page path under base. Paths are
// slash-separated and relative to the output root; order is preserved.
func Render(base string, paths []string) ([]byte, error) {
	set := urlset{Xmlns: Namespace, URLs: make([]entry, 0, len(paths))}
	for _, p := range paths {
		set.URLs = append(set.URLs, entry{Loc: Join(base, p)})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// Robots returns a robots.txt allowing everything and pointing at the sitemap.
func Robots(base string) string {
	return fmt.Sprintf("User-agent: *\nAllow: /\nSitemap: %s\n", Join(base, FileName))
}

// Join appends a relative page path to the site base URL, escaping each
// path segment.
func Join(base, p string) string {
	base = strings.TrimRight(base, "/")
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segments, "/")
}
