// SPDX-License-Identifier: MPL-2.0

package module

import (
	"fmt"

	"github.com/devduck/devduck/internal/dag"
)

// Wildcard is the selection pattern meaning "every known module".
const Wildcard = "*"

// UnknownModuleError is returned when a selection pattern (or a declared
// dependency) names a module absent from every tier.
type UnknownModuleError struct {
	Name string
	// Dependent is set when the unknown name was reached as a dependency.
	Dependent string
}

func (e *UnknownModuleError) Error() string {
	if e.Dependent != "" {
		return fmt.Sprintf("unknown module %q (declared as a dependency of %q)", e.Name, e.Dependent)
	}
	return fmt.Sprintf("unknown module %q in selection patterns", e.Name)
}

// Resolve expands selection patterns against the catalog and returns the
// dependency-closed, priority-deduplicated, dependency-ordered module set.
//
// The wildcard expands to the full catalog and never fails. Any other pattern
// must match an existing module name exactly (case-sensitive). When several
// tiers define the same name, the highest-priority tier's descriptor is used
// in full. The result is topologically arranged: a module's dependencies
// appear before it.
func Resolve(patterns []string, cat *Catalog) ([]*Descriptor, error) {
	// First occurrence wins: the priority-ordered walk implements tier override.
	byName := make(map[string]*Descriptor)
	var names []string
	for _, d := range cat.InPriorityOrder() {
		if _, seen := byName[d.Name]; seen {
			continue
		}
		byName[d.Name] = d
		names = append(names, d.Name)
	}

	// Expand selection patterns.
	var requested []string
	for _, pattern := range patterns {
		if pattern == Wildcard {
			requested = append(requested, names...)
			continue
		}
		if _, ok := byName[pattern]; !ok {
			return nil, &UnknownModuleError{Name: pattern}
		}
		requested = append(requested, pattern)
	}

	// Dependency closure over the deduplicated catalog.
	g := dag.New()
	for _, name := range names {
		g.AddNode(name)
		for _, dep := range byName[name].Dependencies {
			g.AddEdge(name, dep)
		}
	}
	closure := g.Closure(requested)

	// Validate the closure and order it dependencies-first.
	order := dag.New()
	for _, name := range closure {
		d, ok := byName[name]
		if !ok {
			return nil, &UnknownModuleError{Name: name, Dependent: dependentOf(name, closure, byName)}
		}
		order.AddNode(name)
		for _, dep := range d.Dependencies {
			order.AddEdge(dep, name)
		}
	}
	sorted, err := order.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("failed to order modules: %w", err)
	}

	resolved := make([]*Descriptor, 0, len(sorted))
	for _, name := range sorted {
		resolved = append(resolved, byName[name])
	}
	return resolved, nil
}

// dependentOf finds a module in the closure that declares name as a
// dependency, for error messages.
func dependentOf(name string, closure []string, byName map[string]*Descriptor) string {
	for _, candidate := range closure {
		d, ok := byName[candidate]
		if !ok {
			continue
		}
		for _, dep := range d.Dependencies {
			if dep == name {
				return candidate
			}
		}
	}
	return ""
}
