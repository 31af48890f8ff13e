package wifi

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultExecTimeout bounds every external command that runs without a
// deadline of its own.
const defaultExecTimeout = 30 * time.Second

// commandRunner runs a command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// execWithTimeout runs a command with a context deadline.
// If the provided context has no deadline, defaultExecTimeout is applied.
// Returns combined stdout+stderr and any error.
func execWithTimeout(ctx context.Context, name string, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultExecTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(out), fmt.Errorf("%s: command timed out: %w", name, ctx.Err())
	}
	if err != nil {
		return string(out), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// sanitizeExecError returns a safe error message without leaking command
// output or arguments (which may include a WiFi password) to clients.
func sanitizeExecError(operation string, err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s: command timed out", operation)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("%s failed (exit code %d)", operation, exitErr.ExitCode())
	}
	return fmt.Sprintf("%s failed", operation)
}
