package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ConfigHelpers provides convenient access to global configuration
type ConfigHelpers struct {
	config *GlobalConfig
}

// NewConfigHelpers creates a new config helpers instance
func NewConfigHelpers(config *GlobalConfig) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// Workers returns the number of concurrent download workers
func (c *ConfigHelpers) Workers() int {
	return c.config.Workers
}

// CacheDir returns the absolute path to the download cache directory
func (c *ConfigHelpers) CacheDir() (string, error) {
	return filepath.Abs(c.config.CacheDir)
}

// WorkDir returns the absolute path to the work directory
func (c *ConfigHelpers) WorkDir() (string, error) {
	return filepath.Abs(c.config.WorkDir)
}

// BinDir returns the absolute path of the binary installation directory
func (c *ConfigHelpers) BinDir() (string, error) {
	return filepath.Abs(c.config.BinDir)
}

// ReceiptsDir returns the absolute path of the install receipt directory
func (c *ConfigHelpers) ReceiptsDir() (string, error) {
	return filepath.Abs(c.config.ReceiptsDir)
}

// TempDir returns the absolute staging root: temp_dir when set, otherwise
// <work_dir>/staging
func (c *ConfigHelpers) TempDir() (string, error) {
	if c.config.TempDir == "" {
		workDir, err := c.WorkDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(workDir, "staging"), nil
	}
	return filepath.Abs(c.config.TempDir)
}

// HTTPTimeout returns the overall timeout for one download
func (c *ConfigHelpers) HTTPTimeout() time.Duration {
	return c.config.HTTP.Timeout
}

// SelfTestTimeout returns how long a self-test invocation may run
func (c *ConfigHelpers) SelfTestTimeout() time.Duration {
	return c.config.SelfTest.Timeout
}

// CreateCacheDir ensures the cache directory exists
func (c *ConfigHelpers) CreateCacheDir() error {
	cacheDir, err := c.CacheDir()
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}
	return createDirIfNotExists(cacheDir)
}

// CreateWorkDir ensures the work directory exists
func (c *ConfigHelpers) CreateWorkDir() error {
	workDir, err := c.WorkDir()
	if err != nil {
		return fmt.Errorf("resolving work directory: %w", err)
	}
	return createDirIfNotExists(workDir)
}

// CreateTempDir ensures a subdirectory of the staging root exists
func (c *ConfigHelpers) CreateTempDir(subdir string) (string, error) {
	root, err := c.TempDir()
	if err != nil {
		return "", fmt.Errorf("resolving temp directory: %w", err)
	}
	tempDir := filepath.Join(root, subdir)
	return tempDir, createDirIfNotExists(tempDir)
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
