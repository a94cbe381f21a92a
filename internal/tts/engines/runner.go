package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single subprocess call without a deadline.
const DefaultTimeout = 2 * time.Minute

// Runner executes external commands.
type Runner interface {
	// Run executes name with args, feeding stdin, and returns stdout.
	Run(ctx context.Context, stdin string, name string, args ...string) ([]byte, error)
}

// SubprocessRunner handles safe subprocess execution for TTS engines.
// It prevents stdin race conditions by setting up stdin before process start.
type SubprocessRunner struct {
	// mutex serializes subprocess execution
	mu sync.Mutex

	// defaultTimeout for calls whose context has no deadline
	defaultTimeout time.Duration
}

// NewSubprocessRunner creates a new subprocess runner.
func NewSubprocessRunner(timeout time.Duration) *SubprocessRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SubprocessRunner{defaultTimeout: timeout}
}

// Run executes a command with stdin input.
func (r *SubprocessRunner) Run(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.defaultTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	// Set up stdin BEFORE starting the process
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	err := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out: %w", name, ctxErr)
		}
		return nil, fmt.Errorf("%s cancelled: %w", name, ctxErr)
	}

	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w\nstderr: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}

	return stdout.Bytes(), nil
}
