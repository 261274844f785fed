package formula

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

func TestInstallFromArchiveRoot(t *testing.T) {
	f := newTestFormula(t)
	root := t.TempDir()
	binDir := filepath.Join(t.TempDir(), "bin")
	writeFile(t, filepath.Join(root, "iamcommitted"), "binary-v1", 0644)
	writeFile(t, filepath.Join(root, "README.md"), "docs", 0644)

	path, err := f.Install(root, binDir)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if path != filepath.Join(binDir, "iamcommitted") {
		t.Errorf("unexpected install path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "binary-v1" {
		t.Fatalf("installed content = %q, err = %v", data, err)
	}
	fi, _ := os.Stat(path)
	if fi.Mode().Perm() != 0755 {
		t.Errorf("expected mode 0755, got %v", fi.Mode().Perm())
	}

	entries, _ := os.ReadDir(binDir)
	if len(entries) != 1 {
		t.Errorf("expected exactly one file in bin dir, got %d", len(entries))
	}
}

func TestInstallFromNestedDirectory(t *testing.T) {
	f := newTestFormula(t)
	root := t.TempDir()
	binDir := t.TempDir()
	writeFile(t, filepath.Join(root, "iamcommitted-v0.1.0", "iamcommitted"), "nested", 0755)

	path, err := f.Install(root, binDir)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "nested" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	f := newTestFormula(t)
	root := t.TempDir()
	binDir := t.TempDir()

	writeFile(t, filepath.Join(root, "iamcommitted"), "first", 0755)
	if _, err := f.Install(root, binDir); err != nil {
		t.Fatalf("first Install failed: %v", err)
	}
	writeFile(t, filepath.Join(root, "iamcommitted"), "second", 0755)
	path, err := f.Install(root, binDir)
	if err != nil {
		t.Fatalf("second Install failed: %v", err)
	}

	if data, _ := os.ReadFile(path); string(data) != "second" {
		t.Errorf("expected overwritten content, got %q", data)
	}
	entries, _ := os.ReadDir(binDir)
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestInstallMissingBinaryWritesNothing(t *testing.T) {
	f := newTestFormula(t)
	root := t.TempDir()
	binDir := filepath.Join(t.TempDir(), "bin")
	writeFile(t, filepath.Join(root, "other-tool"), "x", 0755)
	if err := os.MkdirAll(filepath.Join(root, "iamcommitted"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := f.Install(root, binDir)
	if !errors.Is(err, ErrMalformedArtifact) {
		t.Fatalf("expected ErrMalformedArtifact, got %v", err)
	}
	if _, err := os.Stat(binDir); !os.IsNotExist(err) {
		t.Errorf("bin dir must not be created on failure, stat err = %v", err)
	}
}

func TestInstallAmbiguousBinary(t *testing.T) {
	f := newTestFormula(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "darwin", "iamcommitted"), "a", 0755)
	writeFile(t, filepath.Join(root, "linux", "iamcommitted"), "b", 0755)

	_, err := f.Install(root, t.TempDir())
	if !errors.Is(err, ErrMalformedArtifact) {
		t.Fatalf("expected ErrMalformedArtifact for ambiguous archive, got %v", err)
	}
}

func TestInstallMissingArchiveRoot(t *testing.T) {
	f := newTestFormula(t)
	_, err := f.Install(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	if !errors.Is(err, ErrMalformedArtifact) {
		t.Fatalf("expected ErrMalformedArtifact, got %v", err)
	}
}
