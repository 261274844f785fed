package formula

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var sha256Pattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// HasPlaceholderDigest reports whether sha256 is anything other than a
// 64-character hex string, e.g. a template value awaiting the first release.
func (f *Formula) HasPlaceholderDigest() bool {
	return !sha256Pattern.MatchString(strings.TrimSpace(f.SHA256))
}

// Digest returns the declared SHA-256 digest. A placeholder cannot verify
// anything, so it fails like a mismatch would.
func (f *Formula) Digest() ([]byte, error) {
	if f.HasPlaceholderDigest() {
		return nil, fmt.Errorf("%w: formula %s declares sha256 %q, which is not a SHA-256 digest",
			ErrIntegrity, f.Name, f.SHA256)
	}
	sum, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(f.SHA256)))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding sha256 of %s: %v", ErrIntegrity, f.Name, err)
	}
	return sum, nil
}
