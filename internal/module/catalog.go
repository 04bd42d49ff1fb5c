// SPDX-License-Identifier: MPL-2.0

package module

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/devduck/devduck/internal/state"
)

// Tier is a module's provenance class. Lower values override higher ones:
// when two tiers define a module with the same name, the lower-valued tier's
// descriptor is used in full.
type Tier int

const (
	// TierWorkspace is the workspace-local modules/ directory.
	TierWorkspace Tier = iota
	// TierProject is the project-local modules/ directory.
	TierProject
	// TierExternal holds modules found inside fetched repos.
	TierExternal
	// TierBuiltin holds the descriptors compiled into the binary.
	TierBuiltin
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierWorkspace:
		return "workspace"
	case TierProject:
		return "project"
	case TierExternal:
		return "external"
	case TierBuiltin:
		return "built-in"
	default:
		return "unknown"
	}
}

// ModulesDirName is the subdirectory scanned for modules in each location.
const ModulesDirName = "modules"

//go:embed builtin/*.yml
var builtinFS embed.FS

// Catalog enumerates candidate modules per provenance tier. It performs no
// merging or priority logic beyond keeping tiers apart; the resolver applies
// override priority.
type Catalog struct {
	tiers map[Tier][]*Descriptor
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tiers: make(map[Tier][]*Descriptor)}
}

// Add places a descriptor into its tier.
func (c *Catalog) Add(d *Descriptor) {
	c.tiers[d.Tier] = append(c.tiers[d.Tier], d)
}

// InPriorityOrder returns all descriptors, workspace tier first, builtin
// last. Same-name duplicates across tiers are all present; callers build a
// first-occurrence-wins map to apply override priority.
func (c *Catalog) InPriorityOrder() []*Descriptor {
	var all []*Descriptor
	for _, tier := range []Tier{TierWorkspace, TierProject, TierExternal, TierBuiltin} {
		all = append(all, c.tiers[tier]...)
	}
	return all
}

// Discover builds the catalog for a workspace: workspace-local modules,
// project-local modules, modules inside fetched repos, and the built-in set.
// Missing directories are skipped silently; a module directory with an
// unreadable descriptor is an error.
func Discover(workspaceRoot, projectRoot string) (*Catalog, error) {
	c := NewCatalog()

	if err := c.scanDir(filepath.Join(workspaceRoot, ModulesDirName), TierWorkspace); err != nil {
		return nil, err
	}
	if projectRoot != "" && projectRoot != workspaceRoot {
		if err := c.scanDir(filepath.Join(projectRoot, ModulesDirName), TierProject); err != nil {
			return nil, err
		}
	}
	if err := c.scanRepos(filepath.Join(workspaceRoot, state.Dir, "repos")); err != nil {
		return nil, err
	}
	if err := c.loadBuiltins(); err != nil {
		return nil, err
	}

	return c, nil
}

// scanDir loads every immediate subdirectory of dir that contains a
// descriptor file.
func (c *Catalog) scanDir(dir string, tier Tier) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan modules directory '%s': %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		moduleDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(moduleDir, DescriptorName)); err != nil {
			continue
		}
		d, err := LoadDescriptor(moduleDir, tier)
		if err != nil {
			return err
		}
		c.Add(d)
	}
	return nil
}

// scanRepos walks each fetched repo for a modules/ directory.
func (c *Catalog) scanRepos(reposDir string) error {
	entries, err := os.ReadDir(reposDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan repos directory '%s': %w", reposDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := c.scanDir(filepath.Join(reposDir, entry.Name(), ModulesDirName), TierExternal); err != nil {
			return err
		}
	}
	return nil
}

// loadBuiltins parses the compiled-in descriptors.
func (c *Catalog) loadBuiltins() error {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return fmt.Errorf("failed to read builtin modules: %w", err)
	}

	for _, entry := range entries {
		data, err := fs.ReadFile(builtinFS, "builtin/"+entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read builtin module '%s': %w", entry.Name(), err)
		}
		d, err := parseDescriptor(data, entry.Name())
		if err != nil {
			return err
		}
		d.Path = "builtin:" + d.Name
		d.Tier = TierBuiltin
		c.Add(d)
	}
	return nil
}
