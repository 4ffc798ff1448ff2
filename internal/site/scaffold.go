package site

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// skeleton is the starter input tree written by Scaffold, keyed by slash path.
var skeleton = map[string]string{
	"variables.txt": `# Site-wide variables
$(siteurl) = "https://example.org"
$(sitename) = "Example Site"
`,
	".sitesmithignore": `# Patterns excluded from asset copies
*.psd
.DS_Store
`,
	"layout/main.html": `<!DOCTYPE html>
<html>
<head>
<title>{{ $(title) }} | {{ $(sitename) }}</title>
<link rel="stylesheet" href="assets/site.css">
{{ head }}
</head>
<body>
{{ include nav.html }}
<main>
{{ content }}
</main>
<footer>Generated {{ $(date) }}</footer>
</body>
</html>
`,
	"include/nav.html": `<nav><a href="index.html">Home</a> <a href="blog/welcome.html">Blog</a></nav>
`,
	"pages/index.html": `{{ layout main.html $(title) = "Home" }}
{{ section head }}
<meta name="description" content="{{ $(sitename) }}">
{{ endsection }}
<h1>Welcome to {{ $(sitename) }}</h1>
`,
	"pages/blog/welcome.md": `---
title: Welcome
---
# {{ $(title) }}

This page was written in Markdown.
`,
	"archive/index.html": `<p>Imported pages are copied as-is; {{ directives }} here stay literal.</p>
<a href="../index.html">Back</a>
`,
	"assets/site.css": `body { font-family: sans-serif; }
`,
	"root/humans.txt": `/* TEAM */
`,
}

// Scaffold writes a starter input tree under root and returns the written
// paths. Existing files are kept unless force is set.
func Scaffold(fs afero.Fs, root string, force bool) ([]string, error) {
	names := make([]string, 0, len(skeleton))
	for name := range skeleton {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if !force {
			if ok, _ := afero.Exists(fs, path); ok {
				continue
			}
		}
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := afero.WriteFile(fs, path, []byte(skeleton[name]), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
