// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, environment overrides, and upload validation
package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fieldwork", cfg.ClientName)
	assert.True(t, strings.HasPrefix(cfg.DBPath, filepath.Join(xdg.DataHome, "fieldwork")),
		"database defaults under the XDG data home")
	assert.Equal(t, filepath.Base(cfg.DBPath), "fieldwork.db")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FIELDWORK_SERVER", "https://survey.example.org")
	t.Setenv("FIELDWORK_USER", "jdoe")
	t.Setenv("FIELDWORK_PASSWORD", "hunter2")
	t.Setenv("FIELDWORK_CLIENT", "fieldwork-test")
	t.Setenv("FIELDWORK_DB_PATH", "/tmp/alt.db")
	t.Setenv("FIELDWORK_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://survey.example.org", cfg.Server)
	assert.Equal(t, "jdoe", cfg.User)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "fieldwork-test", cfg.ClientName)
	assert.Equal(t, "/tmp/alt.db", cfg.DBPath)
	assert.True(t, cfg.Debug)
}

func TestValidateUpload(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.ValidateUpload())

	cfg.Server = "https://survey.example.org"
	require.Error(t, cfg.ValidateUpload(), "user still missing")

	cfg.User = "jdoe"
	cfg.Password = "hunter2"
	assert.NoError(t, cfg.ValidateUpload())
}
