package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormula marks a formula file that fails schema or semantic checks.
	ErrInvalidFormula = errors.New("invalid formula")

	// ErrIntegrity marks a downloaded artifact whose digest does not match, or
	// a formula whose digest cannot be used for verification.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrMalformedArtifact marks an archive that does not contain the expected executable.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrVersionMismatch marks a self-test whose output lacks the expected version string.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrSelfTestFailed marks a self-test that could not run the binary to completion.
	ErrSelfTestFailed = errors.New("self-test failed")
)

// VersionMismatchError carries the captured output of a failed self-test.
type VersionMismatchError struct {
	Binary   string
	Expected string
	Output   string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s: %s --version printed %q, expected it to contain %q",
		ErrVersionMismatch, e.Binary, e.Output, e.Expected)
}

func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}
