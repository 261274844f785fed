// Package integrity verifies downloaded artifacts before anything is installed.
package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/open-edge-platform/formula-installer/internal/formula"
	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
)

func sha256Sum(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// VerifyDigest checks the file at path against the expected SHA-256 sum and
// returns the lowercase hex digest it computed.
func VerifyDigest(path string, expected []byte) (string, error) {
	log := logger.Logger()

	if len(expected) != sha256.Size {
		return "", fmt.Errorf("%w: expected digest has %d bytes, want %d", formula.ErrIntegrity, len(expected), sha256.Size)
	}

	actual, err := sha256Sum(path)
	if err != nil {
		return "", err
	}
	digest := hex.EncodeToString(actual)
	if !bytes.Equal(actual, expected) {
		return "", fmt.Errorf("%w: sha256 mismatch for %s: expected %s, got %s",
			formula.ErrIntegrity, path, hex.EncodeToString(expected), digest)
	}

	log.Debugf("sha256 of %s verified: %s", path, digest)
	return digest, nil
}

// VerifyFormulaArtifact checks archivePath against the formula's declared digest.
// It fails for placeholder digests, so it can never be satisfied by accident.
func VerifyFormulaArtifact(f *formula.Formula, archivePath string) (string, error) {
	expected, err := f.Digest()
	if err != nil {
		return "", err
	}
	return VerifyDigest(archivePath, expected)
}
