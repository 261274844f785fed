package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = "formula-installer.yml"

// GlobalConfig holds installer-wide settings.
type GlobalConfig struct {
	Workers     int            `yaml:"workers"`
	CacheDir    string         `yaml:"cache_dir"`
	WorkDir     string         `yaml:"work_dir"`
	TempDir     string         `yaml:"temp_dir"`
	BinDir      string         `yaml:"bin_dir"`
	ReceiptsDir string         `yaml:"receipts_dir"`
	HTTP        HTTPConfig     `yaml:"http"`
	SelfTest    SelfTestConfig `yaml:"self_test"`
	Logging     LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type SelfTestConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GlConfig is the configuration the CLI loaded at start-up.
var GlConfig = DefaultGlobalConfig()

// DefaultGlobalConfig returns the settings used when no config file exists.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Workers:     2,
		CacheDir:    "./cache",
		WorkDir:     "./workspace",
		BinDir:      "./prefix/bin",
		ReceiptsDir: "./prefix/receipts",
		HTTP:        HTTPConfig{Timeout: 5 * time.Minute},
		SelfTest:    SelfTestConfig{Timeout: 30 * time.Second},
		Logging:     LoggingConfig{Level: "info"},
	}
}

// LoadGlobalConfig reads path on top of the defaults. A missing file is not
// an error when path is the default file name.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultConfigFile {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and the log level.
func (c *GlobalConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheDir == "" || c.WorkDir == "" || c.BinDir == "" || c.ReceiptsDir == "" {
		return fmt.Errorf("cache_dir, work_dir, bin_dir and receipts_dir must be set")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.SelfTest.Timeout <= 0 {
		return fmt.Errorf("self_test.timeout must be positive")
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
