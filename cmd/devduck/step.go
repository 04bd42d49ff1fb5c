// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/devduck/devduck/internal/pipeline"
)

var runStepCmd = &cobra.Command{
	Use:   "run-step <step>",
	Short: "Run a single pipeline step",
	Long: `Run one pipeline step by id, for debugging or selective re-runs.

Valid steps:
  check-env, download-repos, download-projects, check-env-again,
  setup-modules, setup-projects, verify-installation

The step's outcome is recorded in .devduck/state.json exactly as a full
install run would record it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunStep,
}

func runRunStep(cmd *cobra.Command, args []string) error {
	id, err := pipeline.ParseStepID(args[0])
	if err != nil {
		return err
	}

	ws, err := workspaceRoot()
	if err != nil {
		return reportError(cmd, err)
	}

	p, lock, err := buildPipeline(ws)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	defer lock.Release()

	outcome, err := p.RunStep(cmd.Context(), id)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	return reportOutcome(outcome)
}
