package config

import (
	"fmt"
	"os"
)

const sampleConfig = `# sitesmith configuration
input: ./site
output: ./public

# Root variables seeded before any page is composed ($(name) = "value" lines).
variables_file: variables.txt
ignore_file: .sitesmithignore

# Each category is a directory of root pages. Links are rewritten relative
# to the category root, so keep site-wide navigation within one category.
categories:
  - dir: pages
  - dir: archive
    output: archive
    prerendered: true

include_dir: include
layout_dir: layout
asset_dirs: [assets]
passthrough_dir: root

sitemap:
  enabled: true
  url_variable: siteurl
  suppress_marker: .nositemap

retry:
  max_retries: 3
  backoff: linear
  initial_delay: 25ms
  max_delay: 500ms

watch:
  poll_interval: 500ms
  serve_addr: ""
  metrics: true
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
