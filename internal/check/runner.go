// SPDX-License-Identifier: MPL-2.0

package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// DefaultTimeout bounds generic (shell/file) checks.
	DefaultTimeout = 10 * time.Second
	// DefaultReachTimeout bounds fast HTTP reachability probes.
	DefaultReachTimeout = 5 * time.Second
)

// Result is the outcome of one executed check or command.
type Result struct {
	// Passed is true when the probe succeeded.
	Passed bool
	// Message carries failure detail for reporting.
	Message string
	// TimedOut is true when the probe exceeded its timeout. A timed-out check
	// is failed/unknown, never retried automatically.
	TimedOut bool
}

// Runner executes individual checks. The zero value is usable; timeouts
// default to DefaultTimeout and DefaultReachTimeout.
type Runner struct {
	// Timeout bounds shell command probes.
	Timeout time.Duration
	// ReachTimeout bounds HTTP reachability probes.
	ReachTimeout time.Duration
	// WorkDir is the working directory for shell probes.
	WorkDir string
	// Env is the environment for shell probes, in KEY=value form.
	// When nil, the process environment is used.
	Env []string
	// Stdout and Stderr receive shell probe output. When nil, output is discarded.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the spec's test probe and classifies the outcome.
// Specs with no test string pass vacuously.
func (r *Runner) Run(ctx context.Context, spec Spec) Result {
	if spec.Test == "" {
		return Result{Passed: true}
	}

	probe := ClassifyProbe(spec.Test)
	switch probe.Kind {
	case ProbeFile:
		return r.runFile(probe)
	case ProbeHTTP:
		return r.runHTTP(ctx, probe)
	default:
		return r.runShell(ctx, probe.Command)
	}
}

// RunCommand executes a remediation/install command or a hook script through
// the shell, streaming output to the runner's writers. The command is bounded
// by ctx only; installs may legitimately take longer than probe timeouts.
func (r *Runner) RunCommand(ctx context.Context, command string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return fmt.Errorf("failed to parse command: %w", err)
	}

	sh, err := r.newShell()
	if err != nil {
		return err
	}

	if err := sh.Run(ctx, prog); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return fmt.Errorf("command exited with status %d", status)
		}
		return err
	}
	return nil
}

func (r *Runner) runFile(probe Probe) Result {
	path := probe.Path
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return Result{Message: fmt.Sprintf("cannot expand '~': %v", err)}
		}
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) && r.WorkDir != "" {
		path = filepath.Join(r.WorkDir, path)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Message: fmt.Sprintf("path does not exist: %s", path)}
		}
		return Result{Message: fmt.Sprintf("cannot stat %s: %v", path, err)}
	}
	return Result{Passed: true}
}

func (r *Runner) runHTTP(ctx context.Context, probe Probe) Result {
	timeout := r.ReachTimeout
	if timeout <= 0 {
		timeout = DefaultReachTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, probe.Method, probe.URL, nil)
	if err != nil {
		return Result{Message: fmt.Sprintf("invalid probe request: %v", err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return Result{Message: fmt.Sprintf("probe timed out after %s: %s %s", timeout, probe.Method, probe.URL), TimedOut: true}
		}
		return Result{Message: fmt.Sprintf("probe failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{Message: fmt.Sprintf("%s %s returned %s", probe.Method, probe.URL, resp.Status)}
	}
	return Result{Passed: true}
}

func (r *Runner) runShell(ctx context.Context, command string) Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "check")
	if err != nil {
		return Result{Message: fmt.Sprintf("invalid shell command: %v", err)}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sh, err := r.newShell()
	if err != nil {
		return Result{Message: err.Error()}
	}

	if err := sh.Run(ctx, prog); err != nil {
		if ctx.Err() != nil {
			return Result{Message: fmt.Sprintf("command timed out after %s", timeout), TimedOut: true}
		}
		if status, ok := interp.IsExitStatus(err); ok {
			return Result{Message: fmt.Sprintf("command exited with status %d", status)}
		}
		return Result{Message: err.Error()}
	}
	return Result{Passed: true}
}

// newShell builds an interpreter for shell probes and commands.
func (r *Runner) newShell() (*interp.Runner, error) {
	env := r.Env
	if env == nil {
		env = os.Environ()
	}
	stdout := r.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	sh, err := interp.New(
		interp.Dir(r.WorkDir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shell interpreter: %w", err)
	}
	return sh, nil
}
