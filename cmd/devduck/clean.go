// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devduck/devduck/internal/state"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Forget recorded installation state",
	Long: `Remove .devduck/state.json so the next install starts from scratch:
every step runs again and every check is re-executed.

Fetched repos and project checkouts are left in place.`,
	RunE: runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	ws, err := workspaceRoot()
	if err != nil {
		return err
	}

	if !assumeYes && !confirmPrompt("Forget all recorded installation state?") {
		fmt.Println(SubtitleStyle.Render("clean cancelled"))
		return nil
	}

	if err := state.NewStore(ws).Clean(); err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render("✓ installation state removed"))
	return nil
}
