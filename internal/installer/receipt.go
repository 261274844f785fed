package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SelfTestStatus records whether the post-install check ran and how it went.
type SelfTestStatus string

const (
	SelfTestPassed  SelfTestStatus = "passed"
	SelfTestFailed  SelfTestStatus = "failed"
	SelfTestSkipped SelfTestStatus = "skipped"
)

// Receipt is written after every successful installation.
type Receipt struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	URL         string         `yaml:"url"`
	SHA256      string         `yaml:"sha256"`
	BinaryPath  string         `yaml:"binary_path"`
	InstalledAt time.Time      `yaml:"installed_at"`
	SelfTest    SelfTestStatus `yaml:"self_test"`
}

func receiptPath(dir, name string) string {
	return filepath.Join(dir, name+".yml")
}

// WriteReceipt stores r as <dir>/<name>.yml and returns the path.
func WriteReceipt(dir string, r *Receipt) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating receipts directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshalling receipt for %s: %w", r.Name, err)
	}

	path := receiptPath(dir, r.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing receipt %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replacing receipt %s: %w", path, err)
	}
	return path, nil
}

// ReadReceipt loads the receipt of the named formula from dir.
func ReadReceipt(dir, name string) (*Receipt, error) {
	path := receiptPath(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading receipt %s: %w", path, err)
	}

	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing receipt %s: %w", path, err)
	}
	return &r, nil
}
