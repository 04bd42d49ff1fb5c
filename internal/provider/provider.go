// SPDX-License-Identifier: MPL-2.0

// Package provider defines the fixed contracts for CI, issue-tracker, and
// messenger integrations, and a typed registry of compiled-in providers.
// Discovery is an explicit registration call per provider, never filesystem
// scanning or reflective loading.
package provider

import (
	"fmt"
	"sort"

	"github.com/devduck/devduck/internal/check"
)

// Kind classifies a provider integration.
type Kind string

const (
	KindCI        Kind = "ci"
	KindTracker   Kind = "tracker"
	KindMessenger Kind = "messenger"
)

type (
	// EnvRequirement is one environment variable a provider needs.
	EnvRequirement struct {
		Name        string
		Description string
		Optional    bool
	}

	// Provider is the contract every integration implements. The orchestrator
	// consumes these fixed schemas; provider internals are out of scope.
	Provider interface {
		Kind() Kind
		Name() string
		// RequiredEnv lists the variables check-env validates for this provider.
		RequiredEnv() []EnvRequirement
		// Probe returns an optional reachability check run during
		// verify-installation, or nil.
		Probe() *check.Spec
	}

	// Registry holds providers keyed by (kind, name). Registries are built
	// explicitly and threaded through calls; there is no package-level
	// singleton.
	Registry struct {
		providers map[registryKey]Provider
	}

	registryKey struct {
		kind Kind
		name string
	}
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[registryKey]Provider)}
}

// Register adds a provider. Registering the same (kind, name) twice is an
// error; providers are compiled in and duplicates indicate a wiring bug.
func (r *Registry) Register(p Provider) error {
	key := registryKey{kind: p.Kind(), name: p.Name()}
	if _, exists := r.providers[key]; exists {
		return fmt.Errorf("provider %s/%s registered twice", p.Kind(), p.Name())
	}
	r.providers[key] = p
	return nil
}

// Lookup finds a provider by kind and name.
func (r *Registry) Lookup(kind Kind, name string) (Provider, bool) {
	p, ok := r.providers[registryKey{kind: kind, name: name}]
	return p, ok
}

// LookupByName finds a provider by name across all kinds.
func (r *Registry) LookupByName(name string) (Provider, bool) {
	for key, p := range r.providers {
		if key.name == name {
			return p, true
		}
	}
	return nil, false
}

// All returns every registered provider, ordered by kind then name.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind() != out[j].Kind() {
			return out[i].Kind() < out[j].Kind()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}
