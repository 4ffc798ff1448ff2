package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariablesAndAssignmentLines(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "$(title) = \"Home\"\n<h1>{{ $(title) }}</h1>\n[{{ $(missing) }}]\n{{ $(who) = 'you' }}\nhi {{ who }}\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, "<h1>Home</h1>\n[]\nhi you\n", out)
	assert.Empty(t, c.Diagnostics())
}

func TestAssignmentValueExpandsReferences(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "$(base) = \"/docs\"\n$(link) = \"$(base)/intro.html\"\n{{ $(link) }}\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "/docs/intro.html\n", out)
}

func TestIncludeShadowing(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/part.html":  "<p>{{ $(x) }}</p>",
		"include/inner.html": "$(x) = \"c\"\n<i>{{ $(x) }}</i>",
		"pages/index.html":   "$(x) = \"a\"\n{{ include part.html $(x) = \"b\" }}\n{{ include inner.html }}\n{{ $(x) }}\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "<p>b</p>\n<i>c</i>\na\n", out)
	assert.Equal(t, 1, f.stack.Depth())
}

func TestIncludePathPriority(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/include/nav.html": "local",
		"include/nav.html":       "global",
		"pages/index.html":       "{{ include nav.html }}\nafter\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "local\nafter\n", out)

	require.NoError(t, f.fs.Remove(sitePath("pages/include/nav.html")))
	out, _ = f.compose(t, "pages/index.html")
	assert.Equal(t, "global\nafter\n", out)

	require.NoError(t, f.fs.Remove(sitePath("include/nav.html")))
	out, c := f.compose(t, "pages/index.html")
	require.Len(t, c.Diagnostics(), 1)
	d := c.Diagnostics()[0]
	assert.Equal(t, UnresolvedInclude, d.Kind)
	assert.Equal(t, "nav.html", d.Requested)
	assert.Equal(t, "pages/index.html", d.File)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, []string{"pages/nav.html", "pages/include/nav.html", "include/nav.html"}, d.Paths)
	assert.Contains(t, out, `data-kind="UnresolvedInclude"`)
	assert.Contains(t, out, "<li>pages/include/nav.html</li><li>include/nav.html</li>")
	assert.Contains(t, out, "\nafter\n")
}

func TestIncludeFilenameExpandsVariables(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/footer-en.html": "english footer",
		"pages/index.html":       "$(lang) = \"en\"\n{{ include footer-$(lang).html }}\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "english footer\n", out)
}

func TestIncludeByExtension(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/note.md":  "Some *emphasis* {{ $(x) }}\n",
		"include/raw.txt":  "{{ $(x) }} stays\n",
		"pages/index.html": "$(x) = \"v\"\n{{ include note.md }}\n{{ include raw.txt }}\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Contains(t, out, "<p>Some <em>emphasis</em> {{ $(x) }}</p>")
	assert.Contains(t, out, "{{ $(x) }} stays")
}

func TestIncludeIfAndDebug(t *testing.T) {
	files := map[string]string{
		"include/banner.html": "BANNER",
		"pages/index.html":    "$(show) = \"yes\"\n[{{ include-if $(show) banner.html }}]\n[{{ include-if hidden banner.html }}]\n[{{ include-debug banner.html }}]\n[{{ includedebug banner.html }}]\n",
	}

	f := newFixture(t, files)
	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "[BANNER]\n[]\n[]\n[]\n", out)

	f = newFixture(t, files)
	f.engine.debug = true
	out, _ = f.compose(t, "pages/index.html")
	assert.Equal(t, "[BANNER]\n[]\n[BANNER]\n[BANNER]\n", out)
}

func TestSectionConcatenationAcrossIncludes(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/a.html":   "{{ section extra }}\n<li>a</li>\n{{ endsection }}\n",
		"include/b.html":   "{{ section Extra }}\n<li>b</li>\n{{ endsection }}\n",
		"layout/main.html": "<ul>\n{{ extra }}\n</ul>\n<main>{{ content }}</main>\n",
		"pages/index.html": "{{ layout main.html }}\n{{ include a.html }}<p>body</p>{{ include b.html }}\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n<main><p>body</p></main>\n", out)
	assert.Equal(t, []string{sitePath("layout/main.html")}, c.Layouts())
	assert.Empty(t, c.Diagnostics())
}

func TestReservedSectionName(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "{{ section Content }}\ntext\n{{ endsection }}\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, []Kind{ReservedSectionName}, kinds(c.Diagnostics()))
	_, ok := c.Section(ContentSection)
	assert.False(t, ok)
	assert.Contains(t, out, "text\n")
}

func TestIllegalSectionNesting(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "{{ section outer }}\n{{ section inner }}\nx\n{{ endsection }}\ny\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, []Kind{IllegalSectionNesting}, kinds(c.Diagnostics()))

	outer, ok := c.Section("outer")
	require.True(t, ok)
	assert.Contains(t, outer, "x\n")
	assert.Contains(t, outer, `data-kind="IllegalSectionNesting"`)
	_, ok = c.Section("inner")
	assert.False(t, ok)
	assert.Equal(t, "y\n", out)
}

func TestIllegalSectionNestingAcrossInclude(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/inner.html": "{{ section inner }}\n[I]\n{{ endsection }}\n",
		"pages/index.html":   "{{ section outer }}\n[O\n{{ include inner.html }}\n{{ endsection }}\n{{ include inner.html }}\n",
	})

	_, c := f.compose(t, "pages/index.html")
	require.Equal(t, []Kind{IllegalSectionNesting}, kinds(c.Diagnostics()))
	d := c.Diagnostics()[0]
	assert.Equal(t, "include/inner.html", d.File)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, "inner", d.Requested)

	outer, ok := c.Section("outer")
	require.True(t, ok)
	assert.Contains(t, outer, "[O\n")
	assert.Contains(t, outer, "[I]")
	assert.Contains(t, outer, `data-kind="IllegalSectionNesting"`)

	// Once outer is closed the same include may open its section.
	inner, ok := c.Section("inner")
	require.True(t, ok)
	assert.Equal(t, "[I]\n", inner)
}

func TestMarkdownSection(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "$(name) = \"World\"\n<div>\n{{ section markdown }}\n# Hello {{ $(name) }}\n{{ endsection }}\n</div>\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, "<div>\n<h1 id=\"hello-world\">Hello World</h1>\n</div>\n", out)
	assert.Empty(t, c.SectionNames())
}

func TestVerbatim(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "{{ verbatim }}\n$(x) = \"1\"\n{{ include nope.html }}\n{{ endverbatim }}\n{{ $(x) }}|\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, "$(x) = \"1\"\n{{ include nope.html }}\n|\n", out)
	assert.Empty(t, c.Diagnostics())
}

func TestMultiLineDirective(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/card.html": "<b>{{ $(title) }}</b>",
		"pages/index.html":  "<div>{{ include card.html\n     $(title) = \"Card\" }}</div>\nnext\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "<div><b>Card</b></div>\nnext\n", out)
}

func TestUnterminatedDirectiveRunsToEnd(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "a\n{{ include x\nb\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "a\n{{ include x\nb\n", out)
}

func TestTernaryAndDate(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "$(flag) = \"on\"\n{{ $(flag) == \"on\" ? \"yes\" : \"no\" }}\n{{ $(flag) != 'on' ? 'yes' : 'no' }}\n{{ $(date) = \"yyyy\" }}\n{{ $(date) = \"%Y-%m-%d\" }}\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, "yes\nno\n2024\n2024-03-05\n", out)
}

func TestCyclicInclude(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/a.html":   "A{{ include b.html }}",
		"include/b.html":   "B{{ include a.html }}",
		"pages/index.html": "{{ include a.html }}\n",
	})

	out, c := f.compose(t, "pages/index.html")
	require.Equal(t, []Kind{CyclicInclude}, kinds(c.Diagnostics()))
	assert.Equal(t, []string{"pages/index.html", "include/a.html", "include/b.html", "include/a.html"}, c.Diagnostics()[0].Paths)
	assert.Contains(t, out, "AB<div")
}

func TestLayoutSelfReferenceIsCyclic(t *testing.T) {
	f := newFixture(t, map[string]string{
		"layout/loop.html": "{{ layout loop.html }}\n[{{ content }}]\n",
		"pages/index.html": "{{ layout loop.html }}\nbody\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, []Kind{CyclicInclude}, kinds(c.Diagnostics()))
	assert.Contains(t, out, "[body]\n")
}

func TestLayoutChainReplacesContent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"layout/inner.html": "{{ layout outer.html }}\n<article data-title=\"{{ $(title) }}\">{{ content }}</article>\n",
		"layout/outer.html": "<body>{{ content }}</body>\n",
		"pages/index.html":  "{{ layout inner.html $(title) = \"T\" }}\nbody[{{ $(title) }}]\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, "<body><article data-title=\"T\">body[]</article></body>\n", out)
	assert.Equal(t, []string{sitePath("layout/inner.html"), sitePath("layout/outer.html")}, c.Layouts())
}

func TestLayoutInIncludeIsIgnored(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/part.html": "{{ layout main.html }}\npart\n",
		"layout/main.html":  "<main>{{ content }}</main>\n",
		"pages/index.html":  "{{ include part.html }}\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, "part\n", out)
	assert.Empty(t, c.Layouts())
}

func TestUnresolvedLayout(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "{{ layout missing.html }}\nbody\n",
	})

	out, c := f.compose(t, "pages/index.html")
	assert.Equal(t, []Kind{UnresolvedInclude}, kinds(c.Diagnostics()))
	assert.Equal(t, 1, c.Diagnostics()[0].Line)
	assert.True(t, len(out) > len("body\n"))
	assert.Contains(t, out, "body\n<div class=\"sitesmith-diagnostic\"")
}

func TestDefaultLayout(t *testing.T) {
	f := newFixture(t, map[string]string{
		"layout/base.html": "<html>{{ content }}</html>\n",
		"pages/post.html":  "<p>post</p>\n",
	})

	path := sitePath("pages/post.html")
	c := NewContext(path, f.stack)
	c.DefaultLayout = sitePath("layout/base.html")
	out := f.engine.Compose(c, "<p>post</p>\n")
	assert.Equal(t, "<html><p>post</p></html>\n", out)
}

func TestDumpVars(t *testing.T) {
	f := newFixture(t, map[string]string{
		"pages/index.html": "$(a) = \"<1>\"\n{{ section side }}\n{{ dump-vars }}\n{{ endsection }}\n{{ side }}\n",
	})

	out, _ := f.compose(t, "pages/index.html")
	assert.Contains(t, out, `<pre class="sitesmith-vars">`)
	assert.Contains(t, out, `a = &#34;&lt;1&gt;&#34;`)
	assert.Contains(t, out, "sections: side")
	assert.Contains(t, out, "open section: side")
}

func TestComposeIsIdempotent(t *testing.T) {
	f := newFixture(t, map[string]string{
		"include/a.html":   "{{ section s }}\nx\n{{ endsection }}\n",
		"layout/main.html": "{{ s }}|{{ content }}\n",
		"pages/index.html": "{{ layout main.html }}\n{{ include a.html }}\nbody\n",
	})

	first, _ := f.compose(t, "pages/index.html")
	second, _ := f.compose(t, "pages/index.html")
	assert.Equal(t, first, second)
}
