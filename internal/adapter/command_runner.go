// Package adapter contains infrastructure adapters for the langs toolkit.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	m "github.com/courselab/langs/internal/model"
)

// CommandSpec describes a single external tool invocation.
type CommandSpec struct {
	Program string
	Args    []string
	// Dir is the working directory for the child process.
	Dir m.Path
	// Env holds environment overrides applied on top of the parent
	// environment.
	Env map[string]string
	// Timeout bounds the run. Zero means no timeout.
	Timeout time.Duration
}

func (s CommandSpec) String() string {
	return fmt.Sprintf("%s %v", s.Program, s.Args)
}

// CommandOutput is the captured outcome of a completed invocation. A
// non-zero exit code is data, not an error; callers interpret exit codes
// per ecosystem.
type CommandOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// StartError means the program could not be spawned at all, e.g. it was
// not found or not executable. Distinct from a non-zero exit.
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// TimeoutError means the timeout elapsed before the program completed.
// The child process tree has been forcibly terminated and whatever
// output was captured so far is included.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Stdout  []byte
	Stderr  []byte
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// CommandRunner abstracts external tool execution so plugins can be
// tested without spawning real toolchains. No retries happen at this
// layer; retry policy, if any, belongs to the caller.
type CommandRunner interface {
	Run(ctx context.Context, spec CommandSpec) (CommandOutput, error)
}

// LocalCommandRunner provides a concrete implementation using os/exec.
// The child is started in its own process group so a timeout kills the
// whole tree, not just the direct child.
type LocalCommandRunner struct{}

// NewLocalCommandRunner constructs a LocalCommandRunner.
func NewLocalCommandRunner() *LocalCommandRunner {
	return &LocalCommandRunner{}
}

// Run executes the program to completion or timeout, capturing stdout
// and stderr.
func (r *LocalCommandRunner) Run(ctx context.Context, spec CommandSpec) (CommandOutput, error) {
	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Dir = string(spec.Dir)
	cmd.Env = buildEnv(spec.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("executing command", "command", spec.String(), "dir", spec.Dir, "timeout", spec.Timeout)

	if err := cmd.Start(); err != nil {
		return CommandOutput{}, &StartError{Command: spec.String(), Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timeoutCh <-chan time.Time
	if spec.Timeout > 0 {
		timer := time.NewTimer(spec.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case err := <-done:
		return finishRun(spec, &stdout, &stderr, err)
	case <-timeoutCh:
		killProcessGroup(cmd)
		<-done

		slog.Warn("command timed out", "command", spec.String(), "timeout", spec.Timeout)

		return CommandOutput{}, &TimeoutError{
			Command: spec.String(),
			Timeout: spec.Timeout,
			Stdout:  stdout.Bytes(),
			Stderr:  stderr.Bytes(),
		}
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done

		return CommandOutput{}, ctx.Err()
	}
}

func finishRun(spec CommandSpec, stdout, stderr *bytes.Buffer, err error) (CommandOutput, error) {
	output := CommandOutput{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output.ExitCode = exitErr.ExitCode()
			slog.Debug("command exited non-zero", "command", spec.String(), "code", output.ExitCode)

			return output, nil
		}

		return output, fmt.Errorf("waiting for %q: %w", spec.String(), err)
	}

	slog.Debug("command finished", "command", spec.String())

	return output, nil
}

// killProcessGroup terminates the child and all its descendants.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	// Negative pid signals the whole process group.
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		slog.Warn("failed to kill process group, killing process only", "pid", cmd.Process.Pid, "error", err)
		_ = cmd.Process.Kill()
	}
}

func buildEnv(overrides map[string]string) []string {
	// Some toolchains error on UTF-8 sources when LANG is unset.
	env := append(os.Environ(), "LANG=en_US.UTF-8")
	for key, value := range overrides {
		env = append(env, key+"="+value)
	}

	return env
}
