// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/devduck/devduck/internal/check"
	"github.com/devduck/devduck/internal/lockfile"
	"github.com/devduck/devduck/internal/pipeline"
	"github.com/devduck/devduck/internal/state"
)

// LockFileName is the advisory lock guarding concurrent installs of one
// workspace.
const LockFileName = "state.lock"

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the full installation pipeline",
	Long: `Run every pipeline step in order:

  check-env, download-repos, download-projects, check-env-again,
  setup-modules, setup-projects, verify-installation

The run is resumable: step outcomes and executed checks are recorded in
.devduck/state.json, and a re-run skips what already succeeded.

Exit codes: 0 success, 2 recoverable (set the reported variables and
re-run), 1 hard failure.`,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, _ []string) error {
	ws, err := workspaceRoot()
	if err != nil {
		return reportError(cmd, err)
	}

	p, lock, err := buildPipeline(ws)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	defer lock.Release()

	outcome, err := p.Run(cmd.Context())
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	return reportOutcome(outcome)
}

// buildPipeline takes the install lock for ws and constructs the pipeline
// with interactive prompts wired in.
func buildPipeline(ws string) (*pipeline.Pipeline, *lockfile.Lock, error) {
	logger := newLogger()

	lock, err := lockfile.Acquire(filepath.Join(ws, state.Dir, LockFileName))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("install lock acquired", "path", lock.Path())

	p, err := pipeline.New(pipeline.Options{
		WorkspaceRoot: ws,
		ProjectRoot:   projectRootFlag,
		AssumeYes:     assumeYes,
		Confirm:       confirmPrompt,
		Logger:        logger,
		Out:           os.Stdout,
		Runner:        newRunner(ws),
	})
	if err != nil {
		lock.Release()
		return nil, nil, err
	}
	return p, lock, nil
}

// newRunner builds the probe runner, applying the probe timeouts from the
// user settings on top of the runner's built-in defaults.
func newRunner(ws string) *check.Runner {
	r := &check.Runner{WorkDir: ws}
	if d := userSettings.Probe.Timeout(); d > 0 {
		r.Timeout = d
	}
	if d := userSettings.Probe.ReachTimeout(); d > 0 {
		r.ReachTimeout = d
	}
	return r
}

// newLogger builds the step logger; verbose mode includes per-check debug
// output.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// confirmPrompt asks the user a yes/no remediation question.
func confirmPrompt(title string) bool {
	var yes bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Run").
		Negative("Skip").
		Value(&yes).
		Run()
	if err != nil {
		return false
	}
	return yes
}

// reportOutcome prints the styled outcome line and maps it to the exit code.
func reportOutcome(outcome pipeline.Outcome) error {
	switch outcome {
	case pipeline.OutcomeOK:
		fmt.Println(SuccessStyle.Render("✓ installation complete"))
		return nil
	case pipeline.OutcomeNeedsInput:
		fmt.Println(WarningStyle.Render("⚠ installation paused: input needed"))
	default:
		fmt.Println(ErrorStyle.Render("✗ installation failed"))
	}
	return &ExitError{Code: outcome.ExitCode()}
}
