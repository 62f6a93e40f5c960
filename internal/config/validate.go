package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationResult reports whether the fixed application identity and the
// configured endpoints match what the license service expects. It is a
// diagnostic aid only and is never consulted on the authentication path.
type ValidationResult struct {
	Valid  bool
	Issues []string
}

// Validate checks the application identity constants and the configured
// base URL against their expected values and reports every deviation found.
func (c *Config) Validate() ValidationResult {
	v := validator.New()
	issues := []string{}

	checks := []struct {
		value string
		tag   string
		issue string
	}{
		{AppName, "required,eq=com.loadgate.client", "app name mismatch (expected: com.loadgate.client)"},
		{OwnerID, "required,eq=kQ7wbV0dXz", "owner id mismatch (expected: kQ7wbV0dXz)"},
		{AppVersion, "required,eq=1.3", "version mismatch (expected: 1.3)"},
		{IntegrityHash, "required,len=32,hexadecimal", "integrity hash malformed (expected 32 hex chars)"},
		{c.BaseURL, "required,url", "base URL missing or malformed"},
		{c.ManifestURL, "required,url", "manifest URL missing or malformed"},
	}

	for _, chk := range checks {
		if err := v.Var(chk.value, chk.tag); err != nil {
			issues = append(issues, chk.issue)
		}
	}

	if c.StorePath == "" {
		issues = append(issues, "store path is missing")
	}
	if c.RequestTimeout <= 0 {
		issues = append(issues, fmt.Sprintf("request timeout is invalid: %s", c.RequestTimeout))
	}

	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}
