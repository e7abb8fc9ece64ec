package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRunner executes external processes (compilers, the build tool CLI)
// and captures their output. A non-zero exit is reported through the exit
// code, not as an error, because some compilers deliver their payload on
// the failure path.
type CommandRunner struct{}

// NewCommandRunner creates a new command runner instance.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run executes name with args and returns captured stdout, stderr and the
// process exit code. err is non-nil only when the process could not be
// started or the context was cancelled.
func (cr *CommandRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.String(), stderr.String(), -1, ctxErr
		}
		return stdout.String(), stderr.String(), -1, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return stdout.String(), stderr.String(), 0, nil
}
