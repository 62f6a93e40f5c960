package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	var c Config
	c.LoadDefaults()

	res := c.Validate()
	require.True(t, res.Valid, "issues: %v", res.Issues)
	assert.Empty(t, res.Issues)
}

func TestValidate_ReportsEveryIssue(t *testing.T) {
	c := Config{BaseURL: "not-a-url", ManifestURL: "", StorePath: "", RequestTimeout: 0}

	res := c.Validate()
	require.False(t, res.Valid)
	assert.Contains(t, res.Issues, "base URL missing or malformed")
	assert.Contains(t, res.Issues, "manifest URL missing or malformed")
	assert.Contains(t, res.Issues, "store path is missing")
	assert.GreaterOrEqual(t, len(res.Issues), 4)
}
