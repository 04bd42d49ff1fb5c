// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for devduck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/devduck/devduck/internal/issue"
	"github.com/devduck/devduck/internal/settings"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// assumeYes answers remediation prompts affirmatively
	assumeYes bool
	// workspaceRootFlag overrides workspace root discovery
	workspaceRootFlag string
	// projectRootFlag points at a project checkout with its own modules
	projectRootFlag string
	// settingsFile allows specifying a custom settings file
	settingsFile string

	// userSettings holds the loaded tool settings for the process.
	userSettings = &settings.Settings{}

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "devduck",
		Short: "A workspace provisioning orchestrator",
		Long: TitleStyle.Render("devduck") + SubtitleStyle.Render(" - A workspace provisioning orchestrator") + `

devduck turns a layered YAML workspace configuration into a fully
provisioned development workspace: it validates required environment
variables, fetches external repos and projects, installs modules in
dependency order, and verifies the result. Installation is resumable;
executed checks are remembered and never repeated.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a devduck.yml in your workspace directory
  2. Declare modules, repos, projects, and env requirements
  3. Run: devduck install

` + SubtitleStyle.Render("Examples:") + `
  devduck install                  Run the full installation pipeline
  devduck run-step check-env       Run a single pipeline step
  devduck modules                  List resolved modules with provenance
  devduck config show              Show the merged effective configuration
  devduck clean                    Forget recorded installation state`,
	}
)

func init() {
	cobra.OnInitialize(initRootSettings)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer remediation prompts with yes")
	rootCmd.PersistentFlags().StringVar(&workspaceRootFlag, "workspace-root", "", "workspace directory (default is the current directory)")
	rootCmd.PersistentFlags().StringVar(&projectRootFlag, "project-root", "", "project directory contributing project-tier modules")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "config", "", "settings file (default is $HOME/.config/devduck/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(runStepCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cleanCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootSettings reads the user settings file and applies its defaults to
// flags the user did not set.
func initRootSettings() {
	s, err := settings.Load(settingsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}
	userSettings = s

	if !verbose {
		verbose = s.UI.Verbose
	}
	if !assumeYes {
		assumeYes = s.Install.AssumeYes
	}
}

// workspaceRoot resolves the workspace directory: flag, then settings, then
// the current directory.
func workspaceRoot() (string, error) {
	if workspaceRootFlag != "" {
		return workspaceRootFlag, nil
	}
	if userSettings.WorkspaceRoot != "" {
		return userSettings.WorkspaceRoot, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return wd, nil
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
