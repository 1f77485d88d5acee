// ABOUTME: Configuration and credential loading for the fieldwork engine
// ABOUTME: Handles .env files, FIELDWORK_* overrides, and XDG data paths
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Config carries the upload credentials and storage paths.
type Config struct {
	Server     string
	User       string
	Password   string
	ClientName string
	DBPath     string
	ImageDir   string
	Debug      bool
}

// DataDir returns the XDG-compliant directory for fieldwork data.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "fieldwork")
}

// Load reads an optional .env file from the working directory, applies
// defaults, then FIELDWORK_* environment overrides:
// - FIELDWORK_SERVER
// - FIELDWORK_USER
// - FIELDWORK_PASSWORD
// - FIELDWORK_CLIENT
// - FIELDWORK_DB_PATH
// - FIELDWORK_IMAGE_DIR
// - FIELDWORK_DEBUG.
func Load() (*Config, error) {
	// Missing .env is fine; env vars may carry everything.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		ClientName: "fieldwork",
		DBPath:     filepath.Join(DataDir(), "fieldwork.db"),
		ImageDir:   filepath.Join(DataDir(), "images"),
	}

	if v := os.Getenv("FIELDWORK_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("FIELDWORK_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("FIELDWORK_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("FIELDWORK_CLIENT"); v != "" {
		cfg.ClientName = v
	}
	if v := os.Getenv("FIELDWORK_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FIELDWORK_IMAGE_DIR"); v != "" {
		cfg.ImageDir = v
	}
	cfg.Debug = os.Getenv("FIELDWORK_DEBUG") == "true"

	return cfg, nil
}

// ValidateUpload checks that everything the upload endpoint requires is
// present.
func (c *Config) ValidateUpload() error {
	if c.Server == "" {
		return fmt.Errorf("FIELDWORK_SERVER is not set")
	}
	if c.User == "" {
		return fmt.Errorf("FIELDWORK_USER is not set")
	}
	if c.Password == "" {
		return fmt.Errorf("FIELDWORK_PASSWORD is not set")
	}
	return nil
}
