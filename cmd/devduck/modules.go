// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devduck/devduck/internal/configfile"
	"github.com/devduck/devduck/internal/module"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List resolved modules with their provenance",
	Long: `Resolve the workspace's module selection and print the result in
installation order (dependencies first). Each module shows the
provenance tier that won the name: workspace, project, external, or
built-in.`,
	RunE: runModules,
}

func runModules(cmd *cobra.Command, _ []string) error {
	ws, err := workspaceRoot()
	if err != nil {
		return reportError(cmd, err)
	}
	path, err := configfile.Find(ws)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	cfg, err := configfile.Resolve(path)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}

	cat, err := module.Discover(ws, projectRootFlag)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	resolved, err := module.Resolve(cfg.Modules, cat)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}

	if len(resolved) == 0 {
		fmt.Println(SubtitleStyle.Render("no modules selected"))
		return nil
	}

	fmt.Println(TitleStyle.Render("Modules") + SubtitleStyle.Render(" (installation order)"))
	for _, mod := range resolved {
		line := fmt.Sprintf("  %s %s",
			CmdStyle.Render(mod.Name),
			SubtitleStyle.Render(fmt.Sprintf("[%s] %s", mod.Tier, mod.Path)))
		if len(mod.Dependencies) > 0 {
			line += SubtitleStyle.Render(fmt.Sprintf(" deps=%v", mod.Dependencies))
		}
		fmt.Println(line)
	}
	return nil
}
