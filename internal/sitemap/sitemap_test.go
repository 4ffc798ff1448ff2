package sitemap

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("https://example.org/", []string{"index.html", "blog/a b.html"})
	require.NoError(t, err)

	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://example.org/index.html</loc>
  </url>
  <url>
    <loc>https://example.org/blog/a%20b.html</loc>
  </url>
</urlset>
`, string(out))

	var parsed urlset
	require.NoError(t, xml.Unmarshal(out, &parsed))
	assert.Len(t, parsed.URLs, 2)
}

func TestRenderEmpty(t *testing.T) {
	out, err := Render("https://example.org", nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`)
}

func TestRobots(t *testing.T) {
	assert.Equal(t, "User-agent: *\nAllow: /\nSitemap: https://example.org/sitemap.xml\n", Robots("https://example.org/"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "https://x.org/a/b.html", Join("https://x.org", "/a/b.html"))
	assert.Equal(t, "https://x.org/a/b.html", Join("https://x.org//", "a/b.html"))
}
