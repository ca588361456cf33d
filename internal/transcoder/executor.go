package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Executor runs an external command and returns its stdout.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

// ExecError carries the stderr of a failed command.
type ExecError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command '%s' failed: %v\nstderr: %s", e.Command, e.Err, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.Err }

type execExecutor struct{}

func NewExecutor() Executor { return execExecutor{} }

func (execExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ExecError{Command: name, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}
