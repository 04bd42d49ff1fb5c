// SPDX-License-Identifier: MPL-2.0

package configfile

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/devduck/devduck/internal/check"
)

type (
	// RepoSpec is one external source fetched into the workspace. In YAML a
	// repo may be declared as a bare URL string or a mapping.
	RepoSpec struct {
		// Name overrides the directory name derived from the URL.
		Name string `mapstructure:"name"`
		URL  string `mapstructure:"url"`
	}

	// ProjectSpec is one external project with its own checks.
	ProjectSpec struct {
		Src    string       `mapstructure:"src"`
		Checks []check.Spec `mapstructure:"checks"`
	}

	// EnvDecl declares a required environment variable. Source is stamped
	// during extends resolution with the base name of the layer that declared
	// the variable, so missing-variable reports can say where a requirement
	// came from.
	EnvDecl struct {
		Name        string  `mapstructure:"name"`
		Default     *string `mapstructure:"default"`
		Description string  `mapstructure:"description"`
		Optional    bool    `mapstructure:"optional"`
		Source      string  `mapstructure:"source"`
	}

	// ServerSpec is an MCP-like server verified at the end of installation.
	ServerSpec struct {
		Name string `mapstructure:"name"`
		URL  string `mapstructure:"url"`
	}

	// EffectiveConfig is the single fully merged configuration the pipeline
	// consumes. Known fields are typed; everything else lands in Extra so
	// unknown settings survive a round trip.
	EffectiveConfig struct {
		DevduckPath    string                    `mapstructure:"devduck_path"`
		Modules        []string                  `mapstructure:"modules"`
		ModuleSettings map[string]map[string]any `mapstructure:"moduleSettings"`
		Providers      []string                  `mapstructure:"providers"`
		Repos          []RepoSpec                `mapstructure:"repos"`
		Projects       []ProjectSpec             `mapstructure:"projects"`
		Checks         []check.Spec              `mapstructure:"checks"`
		Env            []EnvDecl                 `mapstructure:"env"`
		MCPServers     []ServerSpec              `mapstructure:"mcpServers"`

		Extra map[string]any `mapstructure:",remain"`
	}
)

// DecodeEffective decodes a fully merged configuration tree into the typed
// EffectiveConfig.
func DecodeEffective(merged map[string]any) (*EffectiveConfig, error) {
	var cfg EffectiveConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &cfg,
		DecodeHook: repoStringHook,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(merged); err != nil {
		return nil, fmt.Errorf("failed to decode effective config: %w", err)
	}
	return &cfg, nil
}

// repoStringHook lets repos[] entries be bare URL strings.
func repoStringHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(RepoSpec{}) {
		return map[string]any{"url": data}, nil
	}
	return data, nil
}
