package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/open-edge-platform/formula-installer/internal/utils/logger"
)

// ErrTimeout is returned when a command does not finish within its timeout.
var ErrTimeout = errors.New("command timed out")

// Result holds what a finished command wrote and how it exited.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs a program without a shell in between.
type Executor interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)
}

// Default is the executor used by callers that do not inject their own.
var Default Executor = &HostExecutor{}

// HostExecutor runs commands directly on the host.
type HostExecutor struct{}

// CmdString renders a command line for logs and error messages.
func CmdString(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Run executes name with args, capturing stdout and stderr separately.
// A non-positive timeout means no timeout beyond ctx.
func (e *HostExecutor) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	log := logger.Logger()
	cmdStr := CmdString(name, args...)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	log.Debugf("Exec: [%s]", cmdStr)
	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, cmdStr)
		}
		if res.Stderr != "" {
			log.Info(res.Stderr)
		}
		return res, fmt.Errorf("failed to exec %s: %w", cmdStr, err)
	}
	if res.Stdout != "" {
		log.Debug(res.Stdout)
	}
	return res, nil
}

// MockCommand is a canned response for any command line containing Pattern.
type MockCommand struct {
	Pattern string
	Output  string
	Stderr  string
	Error   error
}

// MockExecutor replays MockCommands instead of spawning processes.
type MockExecutor struct {
	Commands []MockCommand

	mu    sync.Mutex
	Calls []string
}

// NewMockExecutor returns a MockExecutor answering with commands.
func NewMockExecutor(commands []MockCommand) *MockExecutor {
	return &MockExecutor{Commands: commands}
}

func (m *MockExecutor) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	cmdStr := CmdString(name, args...)

	m.mu.Lock()
	m.Calls = append(m.Calls, cmdStr)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	for _, mc := range m.Commands {
		if strings.Contains(cmdStr, mc.Pattern) {
			res := Result{Stdout: mc.Output, Stderr: mc.Stderr}
			if mc.Error != nil {
				res.ExitCode = 1
			}
			return res, mc.Error
		}
	}
	return Result{}, fmt.Errorf("unexpected command for mock: %s", cmdStr)
}
