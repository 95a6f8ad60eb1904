package ext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// CommandRunner wraps the Run method. Introduced to allow replacing external
// executables, such as kubectl or trivy, with canned responses in tests.
// Run executes the named program with the given arguments, waits for it to
// exit, and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError is returned by a CommandRunner when the program could not be
// started or exited with a non-zero status.
type CommandError struct {
	Name string
	// ExitCode is -1 if the program never ran to completion.
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("running %s: exit code %d", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("running %s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type execRunner struct {
	stderr io.Writer
}

// NewExecRunner constructs a CommandRunner that spawns processes with os/exec.
// Whatever the process writes to its standard error is copied to stderr as it
// runs and is also kept in the returned CommandError.
func NewExecRunner(stderr io.Writer) CommandRunner {
	if stderr == nil {
		stderr = io.Discard
	}
	return &execRunner{stderr: stderr}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	command := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	command.Stderr = io.MultiWriter(&stderr, r.stderr)

	out, err := command.Output()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &CommandError{
			Name:     name,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return out, nil
}
