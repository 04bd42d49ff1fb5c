// SPDX-License-Identifier: MPL-2.0

// Package module discovers installable units across the four provenance tiers
// and resolves which of them apply to a workspace.
package module

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/devduck/devduck/internal/check"
)

// DescriptorName is the file each module directory must contain.
const DescriptorName = "module.yml"

// Hook names a module lifecycle phase.
type Hook string

const (
	HookPreInstall  Hook = "pre-install"
	HookInstall     Hook = "install"
	HookPostInstall Hook = "post-install"
)

// HookOrder returns the lifecycle phases in execution order.
func HookOrder() []Hook {
	return []Hook{HookPreInstall, HookInstall, HookPostInstall}
}

// Descriptor is one installable unit. Name is unique within a provenance
// tier; across tiers the highest-priority tier's descriptor is used in full,
// with no field-level blending.
type Descriptor struct {
	Name         string          `yaml:"name"`
	Dependencies []string        `yaml:"dependencies"`
	Checks       []check.Spec    `yaml:"checks"`
	Hooks        map[Hook]string `yaml:"hooks"`

	// Path is the module's origin location (directory, or a builtin marker).
	Path string `yaml:"-"`
	// Tier records which provenance tier defined this descriptor.
	Tier Tier `yaml:"-"`
}

// LoadDescriptor parses a module.yml from dir. The module name defaults to
// the directory base name when the descriptor does not declare one.
func LoadDescriptor(dir string, tier Tier) (*Descriptor, error) {
	path := filepath.Join(dir, DescriptorName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module descriptor '%s': %w", path, err)
	}

	d, err := parseDescriptor(data, path)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = filepath.Base(dir)
	}
	d.Path = dir
	d.Tier = tier
	return d, nil
}

func parseDescriptor(data []byte, path string) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse module descriptor '%s': %w", path, err)
	}
	return &d, nil
}
