package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-edge-platform/formula-installer/internal/formula"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iamcommitted-v0.1.0-macos.tar.gz")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVerifyDigest(t *testing.T) {
	path := writeArtifact(t, "artifact-bytes")
	sum := sha256.Sum256([]byte("artifact-bytes"))

	got, err := VerifyDigest(path, sum[:])
	if err != nil {
		t.Fatalf("expected digest to verify, got %v", err)
	}
	if got != hex.EncodeToString(sum[:]) {
		t.Errorf("VerifyDigest = %s, want %s", got, hex.EncodeToString(sum[:]))
	}

	other := sha256.Sum256([]byte("tampered"))
	got, err = VerifyDigest(path, other[:])
	if !errors.Is(err, formula.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
	if got != "" {
		t.Errorf("mismatch must not return a digest, got %s", got)
	}
	if !strings.Contains(err.Error(), hex.EncodeToString(sum[:])) {
		t.Errorf("expected actual digest in error, got %v", err)
	}

	if _, err := VerifyDigest(path, []byte{1, 2, 3}); !errors.Is(err, formula.ErrIntegrity) {
		t.Errorf("expected ErrIntegrity for short digest, got %v", err)
	}

	if _, err := VerifyDigest(filepath.Join(t.TempDir(), "missing"), sum[:]); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVerifyFormulaArtifact(t *testing.T) {
	path := writeArtifact(t, "release")
	sum := sha256.Sum256([]byte("release"))

	f := &formula.Formula{Name: "iamcommitted", SHA256: strings.ToUpper(hex.EncodeToString(sum[:]))}
	got, err := VerifyFormulaArtifact(f, path)
	if err != nil {
		t.Fatalf("expected verification to pass, got %v", err)
	}
	if got != hex.EncodeToString(sum[:]) {
		t.Errorf("expected lowercase digest, got %s", got)
	}

	f.SHA256 = "REPLACE_WITH_ACTUAL_SHA256_AFTER_FIRST_RELEASE"
	if _, err := VerifyFormulaArtifact(f, path); !errors.Is(err, formula.ErrIntegrity) {
		t.Fatalf("placeholder digest must fail verification, got %v", err)
	}
}
