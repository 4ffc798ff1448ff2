package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitesmith/internal/foundation/errors"
)

// normalize canonicalizes enumerated fields before defaults are applied.
func normalize(cfg *Config) error {
	if raw := string(cfg.Retry.Backoff); strings.TrimSpace(raw) != "" {
		mode, ok := parseRetryBackoff(raw)
		if !ok {
			return errors.ConfigError("unknown retry backoff mode").
				WithContext("retry.backoff", raw).
				WithContext("known", "fixed, linear, exponential").Build()
		}
		cfg.Retry.Backoff = mode
	}
	for i := range cfg.Categories {
		cfg.Categories[i].Dir = filepath.Clean(strings.TrimSpace(cfg.Categories[i].Dir))
		cfg.Categories[i].Output = strings.Trim(filepath.ToSlash(strings.TrimSpace(cfg.Categories[i].Output)), "/")
	}
	return nil
}

// Validate checks invariants that depend on the final, defaulted configuration.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return errors.ValidationError("input directory must be set").Build()
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return errors.ValidationError("output directory must be set").Build()
	}

	seen := make(map[string]bool, len(cfg.Categories))
	for _, c := range cfg.Categories {
		if c.Dir == "" || c.Dir == "." || strings.HasPrefix(c.Dir, "..") || filepath.IsAbs(c.Dir) {
			return errors.ValidationError("category dir must be a relative directory below the input root").
				WithContext("category", c.Dir).Build()
		}
		if seen[c.Dir] {
			return errors.ValidationError("duplicate category").WithContext("category", c.Dir).Build()
		}
		seen[c.Dir] = true
	}

	in, errIn := filepath.Abs(cfg.Input)
	out, errOut := filepath.Abs(cfg.Output)
	if errIn == nil && errOut == nil {
		for _, c := range cfg.Categories {
			catDir := filepath.Join(in, c.Dir)
			if out == catDir || strings.HasPrefix(out, catDir+string(filepath.Separator)) {
				return errors.ValidationError("output directory must not be inside a category directory").
					WithContext("output", cfg.Output).WithContext("category", c.Dir).Build()
			}
		}
		if out == in {
			return errors.ValidationError("output directory must differ from the input directory").Build()
		}
	}
	return nil
}
