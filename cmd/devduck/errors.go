// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devduck/devduck/internal/configfile"
	"github.com/devduck/devduck/internal/issue"
	"github.com/devduck/devduck/internal/lockfile"
	"github.com/devduck/devduck/internal/module"
)

// describeError augments known workspace failures with suggestions before
// they reach the user. Unrecognized errors pass through unchanged.
func describeError(err error, workspace string) error {
	var (
		candidates *configfile.MultipleCandidatesError
		cycle      *configfile.ExtendsCycleError
		unknown    *module.UnknownModuleError
	)

	switch {
	case errors.Is(err, configfile.ErrConfigNotFound):
		return issue.NewErrorContext().
			WithOperation("locate workspace configuration").
			WithResource(workspace).
			WithSuggestion(fmt.Sprintf("Create a %s in the workspace root", configfile.CandidateNames[0])).
			WithSuggestion("Point --workspace-root at the directory holding the configuration").
			Wrap(err).
			BuildError()
	case errors.As(err, &candidates):
		return issue.NewErrorContext().
			WithOperation("locate workspace configuration").
			WithResource(candidates.Root).
			WithSuggestion("Keep exactly one of: " + strings.Join(candidates.Found, ", ")).
			Wrap(err).
			BuildError()
	case errors.As(err, &cycle):
		return issue.NewErrorContext().
			WithOperation("resolve configuration layers").
			WithSuggestion("Break the extends cycle: " + strings.Join(cycle.Chain, " -> ")).
			Wrap(err).
			BuildError()
	case errors.As(err, &unknown):
		ctx := issue.NewErrorContext().
			WithOperation("resolve module selection").
			WithResource(unknown.Name).
			WithSuggestion("Compare the selection against 'devduck modules'")
		if unknown.Dependent != "" {
			ctx = ctx.WithSuggestion(fmt.Sprintf("Module %q declares it as a dependency", unknown.Dependent))
		}
		return ctx.
			WithSuggestion("Modules from fetched repos exist only after download-repos has run").
			Wrap(err).
			BuildError()
	case errors.Is(err, lockfile.ErrLockBusy):
		return issue.NewErrorContext().
			WithOperation("acquire the install lock").
			WithResource(workspace).
			WithSuggestion("Wait for the devduck run already working on this workspace to finish").
			WithSuggestion("Remove a stale .devduck/" + LockFileName + " only if no other run is alive").
			Wrap(err).
			BuildError()
	}
	return err
}

// reportError prints the styled error, including any suggestions and, in
// verbose mode, the full error chain, then converts it into the process exit
// code. Cobra's own error printing is silenced so the message appears exactly
// once.
func reportError(cmd *cobra.Command, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 1, Err: err}
}
