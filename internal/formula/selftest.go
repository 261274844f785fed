package formula

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
	"github.com/open-edge-platform/formula-installer/internal/utils/shell"
)

// DefaultSelfTestTimeout bounds a single `--version` invocation.
const DefaultSelfTestTimeout = 30 * time.Second

// SelfTestOptions injects the process runner and timeout.
type SelfTestOptions struct {
	Executor shell.Executor
	Timeout  time.Duration
}

// SelfTest runs `binaryPath --version` and checks that stdout contains
// "<binary> <version>".
func (f *Formula) SelfTest(ctx context.Context, binaryPath string, opts SelfTestOptions) error {
	log := logger.Logger()

	executor := opts.Executor
	if executor == nil {
		executor = shell.Default
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSelfTestTimeout
	}

	log.Infof("testing %s: %s --version", f.Name, binaryPath)
	res, err := executor.Run(ctx, timeout, binaryPath, "--version")
	if err != nil {
		return fmt.Errorf("%w: %w (stdout: %q, stderr: %q)", ErrSelfTestFailed, err, res.Stdout, res.Stderr)
	}

	expected := f.ExpectedVersionString()
	if !strings.Contains(res.Stdout, expected) {
		return &VersionMismatchError{
			Binary:   binaryPath,
			Expected: expected,
			Output:   res.Stdout,
		}
	}

	log.Infof("✓ %s reports %q", f.Name, expected)
	return nil
}
