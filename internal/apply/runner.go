// Package apply invokes the external configuration-apply tool.
//
// The binary path is injected by the caller; this package never searches the
// environment for an executable. A non-zero exit surfaces as *ExitError
// carrying the status and both captured output streams, and is never retried.
package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the outcome of one apply invocation.
type Result struct {
	Status int
	Stdout string
	Stderr string
}

// Runner runs the external apply tool.
type Runner interface {
	// Run executes the tool. With trial set, the tool's trial/dry-run mode is
	// requested instead of a permanent apply.
	Run(ctx context.Context, trial bool) (*Result, error)
}

// ExitError reports a non-zero exit of the apply tool.
type ExitError struct {
	Status int
	Stdout string
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("apply tool exited with status %d", e.Status)
}

// ExecRunner implements Runner with a subprocess.
type ExecRunner struct {
	// Bin is the resolved path of the apply binary.
	Bin string
}

// NewExecRunner creates an ExecRunner for the given binary path.
func NewExecRunner(bin string) *ExecRunner {
	return &ExecRunner{Bin: bin}
}

// Run executes the binary with "apply" or, in trial mode, "try".
func (r *ExecRunner) Run(ctx context.Context, trial bool) (*Result, error) {
	mode := "apply"
	if trial {
		mode = "try"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Bin, mode)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Status: exitErr.ExitCode(),
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}
		}
		return nil, fmt.Errorf("failed to run %s: %w", r.Bin, err)
	}

	return &Result{
		Status: 0,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}

// FakeRunner implements Runner with canned results for testing.
type FakeRunner struct {
	Result *Result
	Err    error

	// Calls records the trial flag of each invocation.
	Calls []bool
}

// Run returns the configured result or error.
func (r *FakeRunner) Run(ctx context.Context, trial bool) (*Result, error) {
	r.Calls = append(r.Calls, trial)
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Result != nil {
		return r.Result, nil
	}
	return &Result{Status: 0}, nil
}
