// SPDX-License-Identifier: MPL-2.0

// Package check defines the check declaration model shared by configuration
// layers and module descriptors, and the runner that executes individual
// checks (filesystem, shell command, HTTP probe).
package check

import "fmt"

// Type classifies a check declaration.
type Type string

const (
	// TypeAuth marks a credential check tied to an environment variable.
	TypeAuth Type = "auth"
	// TypeTest marks a functional probe check.
	TypeTest Type = "test"
	// TypeGeneric is the default when no type is declared.
	TypeGeneric Type = ""
)

// Tier is the execution phase a check belongs to within the setup steps.
// Tiers execute in the fixed order returned by TierOrder; tier is the primary
// execution axis across all modules/projects, module identity is secondary.
type Tier string

const (
	TierPreInstall Tier = "pre-install"
	TierInstall    Tier = "install"
	TierLive       Tier = "live"
	TierPreTest    Tier = "pre-test"
	TierTests      Tier = "tests"
)

// TierOrder returns all tiers in execution order.
func TierOrder() []Tier {
	return []Tier{TierPreInstall, TierInstall, TierLive, TierPreTest, TierTests}
}

// Spec is one declared check. Only Name is required.
type Spec struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Type is auth, test, or empty (generic).
	Type Type `yaml:"type,omitempty" mapstructure:"type"`
	// Var names the environment variable an auth check requires.
	Var string `yaml:"var,omitempty" mapstructure:"var"`
	// Test is the probe: a shell command, an "HTTP <method> <url>" line, or a
	// bare filesystem path.
	Test string `yaml:"test,omitempty" mapstructure:"test"`
	// Install is the remediation command offered when the check fails.
	Install string `yaml:"install,omitempty" mapstructure:"install"`
	// Tier selects the execution phase; empty means pre-install.
	Tier Tier `yaml:"tier,omitempty" mapstructure:"tier"`
	// Optional checks are reported but never fail a step.
	Optional bool `yaml:"optional,omitempty" mapstructure:"optional"`
	// Docs is help text shown when the check fails.
	Docs string `yaml:"docs,omitempty" mapstructure:"docs"`
}

// EffectiveTier returns the declared tier, defaulting to pre-install.
func (s Spec) EffectiveTier() Tier {
	if s.Tier == "" {
		return TierPreInstall
	}
	return s.Tier
}

// ScopeKind identifies what owns a check.
type ScopeKind string

const (
	ScopeModule    ScopeKind = "module"
	ScopeProject   ScopeKind = "project"
	ScopeWorkspace ScopeKind = "workspace"
)

// Identity is the stable key used for idempotent skip tracking. Two checks
// with the same identity are the same check across steps and pipeline re-runs.
type Identity struct {
	Scope     ScopeKind
	ScopeName string
	Name      string
}

// NewIdentity builds the identity for a check owned by the given scope.
func NewIdentity(scope ScopeKind, scopeName, checkName string) Identity {
	return Identity{Scope: scope, ScopeName: scopeName, Name: checkName}
}

// String renders the identity in its persisted form, e.g. "module:node/auth-npm".
func (id Identity) String() string {
	return fmt.Sprintf("%s:%s/%s", id.Scope, id.ScopeName, id.Name)
}
