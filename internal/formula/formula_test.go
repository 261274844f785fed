package formula

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFormulaYAML = `name: iamcommitted
description: AI micro bot for generating Git commit messages
homepage: https://github.com/darkin100/iamcommitted
url: https://github.com/darkin100/iamcommitted/releases/download/v0.1.0/iamcommitted-v0.1.0-macos.tar.gz
sha256: REPLACE_WITH_ACTUAL_SHA256_AFTER_FIRST_RELEASE
version: 0.1.0
license: MIT
caveats: |
  This application requires an OpenAI API key to function.
  Please set the OPENAI_API_KEY environment variable:
    export OPENAI_API_KEY="your_api_key_here"
`

func newTestFormula(t *testing.T) *Formula {
	t.Helper()
	f, err := ParseFormula([]byte(testFormulaYAML), t.TempDir())
	if err != nil {
		t.Fatalf("ParseFormula failed: %v", err)
	}
	return f
}

func TestLoadReferenceFormula(t *testing.T) {
	f, err := LoadFormula(filepath.Join("..", "..", "formulas", "iamcommitted.yml"))
	if err != nil {
		t.Fatalf("LoadFormula failed: %v", err)
	}
	if f.Name != "iamcommitted" || f.Version != "0.1.0" || f.License != "MIT" {
		t.Errorf("unexpected formula: %+v", f)
	}
	if !f.HasPlaceholderDigest() {
		t.Error("reference formula ships a placeholder digest")
	}
}

func TestParseFormulaRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"unknown key", testFormulaYAML + "bottle: x\n"},
		{"missing url", strings.Replace(testFormulaYAML, "url: https://github.com/darkin100/iamcommitted/releases/download/v0.1.0/iamcommitted-v0.1.0-macos.tar.gz\n", "", 1)},
		{"bad version", strings.Replace(testFormulaYAML, "version: 0.1.0", "version: latest", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFormula([]byte(tt.yaml), "")
			if !errors.Is(err, ErrInvalidFormula) {
				t.Fatalf("expected ErrInvalidFormula, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Formula {
		return &Formula{
			Name:    "iamcommitted",
			URL:     "https://example.com/iamcommitted.tar.gz",
			SHA256:  strings.Repeat("a", 64),
			Version: "0.1.0",
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid formula, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(f *Formula)
	}{
		{"bad name", func(f *Formula) { f.Name = "Bad Name" }},
		{"bad version", func(f *Formula) { f.Version = "v1" }},
		{"file url", func(f *Formula) { f.URL = "file:///tmp/a.tar.gz" }},
		{"bad homepage", func(f *Formula) { f.Homepage = "github.com/x" }},
		{"empty digest", func(f *Formula) { f.SHA256 = " " }},
		{"binary with path", func(f *Formula) { f.BinaryName = "bin/iamcommitted" }},
		{"signature without key", func(f *Formula) { f.Signature = &Signature{URL: "https://example.com/a.asc"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(f)
			if err := f.Validate(); !errors.Is(err, ErrInvalidFormula) {
				t.Errorf("expected ErrInvalidFormula, got %v", err)
			}
		})
	}
}

func TestCaveatsIndependentOfVersion(t *testing.T) {
	f := newTestFormula(t)
	before := f.Caveats()
	if !strings.Contains(before, "OPENAI_API_KEY") {
		t.Fatalf("caveats should mention OPENAI_API_KEY, got %q", before)
	}

	f.Version = "9.9.9"
	if f.Caveats() != before {
		t.Error("caveats must not depend on version")
	}
}

func TestBinaryDefaultsToName(t *testing.T) {
	f := newTestFormula(t)
	if f.Binary() != "iamcommitted" {
		t.Errorf("Binary() = %q", f.Binary())
	}
	if f.ExpectedVersionString() != "iamcommitted 0.1.0" {
		t.Errorf("ExpectedVersionString() = %q", f.ExpectedVersionString())
	}

	f.BinaryName = "iamc"
	if f.ExpectedVersionString() != "iamc 0.1.0" {
		t.Errorf("ExpectedVersionString() with binary override = %q", f.ExpectedVersionString())
	}
}

func TestArchiveFileName(t *testing.T) {
	f := newTestFormula(t)
	if got := f.ArchiveFileName(); got != "iamcommitted-v0.1.0-macos.tar.gz" {
		t.Errorf("ArchiveFileName() = %q", got)
	}
	f.URL = "https://example.com/"
	if got := f.ArchiveFileName(); got != "iamcommitted-0.1.0.tar.gz" {
		t.Errorf("ArchiveFileName() fallback = %q", got)
	}
}

func TestPublicKeyPathResolvesAgainstFormulaDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "iamcommitted.yml")
	content := testFormulaYAML + "signature:\n  url: https://example.com/a.asc\n  publicKey: keys/release.asc\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFormula(path)
	if err != nil {
		t.Fatalf("LoadFormula failed: %v", err)
	}
	if got := f.PublicKeyPath(); got != filepath.Join(dir, "keys", "release.asc") {
		t.Errorf("PublicKeyPath() = %q", got)
	}

	f.Signature = nil
	if f.PublicKeyPath() != "" {
		t.Error("expected empty key path without signature")
	}
}

func TestDigest(t *testing.T) {
	f := newTestFormula(t)
	if _, err := f.Digest(); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("placeholder digest must fail with ErrIntegrity, got %v", err)
	}

	f.SHA256 = strings.Repeat("AB", 32)
	sum, err := f.Digest()
	if err != nil {
		t.Fatalf("Digest failed: %v", err)
	}
	if len(sum) != 32 || sum[0] != 0xab {
		t.Errorf("unexpected digest bytes %x", sum)
	}
	if f.HasPlaceholderDigest() {
		t.Error("valid digest reported as placeholder")
	}

	f.SHA256 = strings.Repeat("a", 63)
	if !f.HasPlaceholderDigest() {
		t.Error("63-char digest must be treated as placeholder")
	}
}
