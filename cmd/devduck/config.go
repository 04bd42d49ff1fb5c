// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devduck/devduck/internal/configfile"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the workspace configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged effective configuration",
	Long: `Resolve the workspace's extends chain and print the single merged
configuration the pipeline would consume, as YAML. The extends key is
already stripped; env declarations carry the layer that declared them.`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the workspace configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	ws, path, err := findWorkspaceConfig()
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}

	merged, err := configfile.ResolveRaw(path)
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Println(TitleStyle.Render("Effective configuration") + SubtitleStyle.Render(" ("+path+")"))
	fmt.Print(string(out))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	ws, path, err := findWorkspaceConfig()
	if err != nil {
		return reportError(cmd, describeError(err, ws))
	}
	fmt.Println(path)
	return nil
}

func findWorkspaceConfig() (ws, path string, err error) {
	ws, err = workspaceRoot()
	if err != nil {
		return "", "", err
	}
	path, err = configfile.Find(ws)
	return ws, path, err
}
