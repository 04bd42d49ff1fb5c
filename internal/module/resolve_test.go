// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"testing"

	"github.com/devduck/devduck/internal/check"
)

func makeDescriptor(name string, tier Tier, deps ...string) *Descriptor {
	return &Descriptor{
		Name:         name,
		Path:         "/modules/" + name,
		Tier:         tier,
		Dependencies: deps,
	}
}

func TestResolve_TierOverrideUsesFullDescriptor(t *testing.T) {
	t.Parallel()
	cat := NewCatalog()

	builtin := makeDescriptor("foo", TierBuiltin)
	builtin.Checks = []check.Spec{{Name: "builtin-check", Test: "true"}}
	cat.Add(builtin)

	workspace := makeDescriptor("foo", TierWorkspace)
	workspace.Checks = []check.Spec{{Name: "workspace-check", Test: "true"}}
	cat.Add(workspace)

	resolved, err := Resolve([]string{"foo"}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 module, got %d", len(resolved))
	}
	got := resolved[0]
	if got.Tier != TierWorkspace {
		t.Errorf("workspace tier must win, got %v", got.Tier)
	}
	// No field blending: the whole descriptor comes from the winning tier.
	if len(got.Checks) != 1 || got.Checks[0].Name != "workspace-check" {
		t.Errorf("descriptor fields blended across tiers: %+v", got.Checks)
	}
}

func TestResolve_DependencyClosure(t *testing.T) {
	t.Parallel()
	cat := NewCatalog()
	cat.Add(makeDescriptor("foo", TierWorkspace, "bar"))
	cat.Add(makeDescriptor("bar", TierBuiltin, "baz"))
	cat.Add(makeDescriptor("baz", TierBuiltin))
	cat.Add(makeDescriptor("unrelated", TierBuiltin))

	resolved, err := Resolve([]string{"foo"}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, d := range resolved {
		names = append(names, d.Name)
	}
	if len(names) != 3 {
		t.Fatalf("closure should contain foo, bar, baz; got %v", names)
	}
	pos := make(map[string]int)
	for i, n := range names {
		pos[n] = i
	}
	if pos["bar"] > pos["foo"] || pos["baz"] > pos["bar"] {
		t.Errorf("dependencies must come before dependents: %v", names)
	}
}

func TestResolve_NoDuplicates(t *testing.T) {
	t.Parallel()
	cat := NewCatalog()
	cat.Add(makeDescriptor("foo", TierWorkspace, "shared"))
	cat.Add(makeDescriptor("bar", TierWorkspace, "shared"))
	cat.Add(makeDescriptor("shared", TierBuiltin))

	resolved, err := Resolve([]string{"foo", "bar"}, cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for _, d := range resolved {
		if seen[d.Name] {
			t.Errorf("duplicate module %q in resolved set", d.Name)
		}
		seen[d.Name] = true
	}
}

func TestResolve_WildcardNeverFails(t *testing.T) {
	t.Parallel()
	cat := NewCatalog()
	cat.Add(makeDescriptor("a", TierWorkspace))
	cat.Add(makeDescriptor("b", TierBuiltin))

	resolved, err := Resolve([]string{Wildcard}, cat)
	if err != nil {
		t.Fatalf("wildcard must not fail: %v", err)
	}
	if len(resolved) != 2 {
		t.Errorf("wildcard should expand to the full catalog, got %d", len(resolved))
	}

	// Wildcard against an empty catalog is also fine.
	if _, err := Resolve([]string{Wildcard}, NewCatalog()); err != nil {
		t.Errorf("wildcard on empty catalog must not fail: %v", err)
	}
}

func TestResolve_UnknownModule(t *testing.T) {
	t.Parallel()
	cat := NewCatalog()
	cat.Add(makeDescriptor("foo", TierWorkspace))

	_, err := Resolve([]string{"Foo"}, cat)
	var unknownErr *UnknownModuleError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("matching is case-sensitive; expected UnknownModuleError, got %v", err)
	}
	if unknownErr.Name != "Foo" {
		t.Errorf("error should name the pattern, got %q", unknownErr.Name)
	}
}

func TestResolve_UnknownDependency(t *testing.T) {
	t.Parallel()
	cat := NewCatalog()
	cat.Add(makeDescriptor("foo", TierWorkspace, "ghost"))

	_, err := Resolve([]string{"foo"}, cat)
	var unknownErr *UnknownModuleError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownModuleError, got %v", err)
	}
	if unknownErr.Name != "ghost" || unknownErr.Dependent != "foo" {
		t.Errorf("error should name the dependency edge, got %+v", unknownErr)
	}
}
