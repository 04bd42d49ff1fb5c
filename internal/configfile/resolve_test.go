// SPDX-License-Identifier: MPL-2.0

package configfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLayer(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve_NoExtendsIsIdentity(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	entry := writeLayer(t, dir, "devduck.yml", `
modules: ["go", "node"]
checks:
  - name: lint
    test: "true"
`)

	raw, err := ResolveRaw(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layer, err := LoadLayer(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(raw, layer.Raw) {
		t.Errorf("resolving a single layer must be the identity:\ngot  %v\nwant %v", raw, layer.Raw)
	}
}

func TestResolve_OverridePriorityKeepsPosition(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeLayer(t, dir, "base.yml", `
checks:
  - name: first
    test: "true"
  - name: x
    test: "base-body"
`)
	entry := writeLayer(t, dir, "devduck.yml", `
extends: ["base.yml"]
checks:
  - name: x
    test: "entry-body"
`)

	cfg, err := Resolve(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Checks) != 2 {
		t.Fatalf("expected exactly 2 checks, got %d", len(cfg.Checks))
	}
	if cfg.Checks[0].Name != "first" {
		t.Errorf("check order changed: %v", cfg.Checks)
	}
	if cfg.Checks[1].Name != "x" || cfg.Checks[1].Test != "entry-body" {
		t.Errorf("entry layer must win at base position, got %+v", cfg.Checks[1])
	}
}

func TestResolve_CycleDetection(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeLayer(t, dir, "x.yml", "extends: [\"y.yml\"]\n")
	writeLayer(t, dir, "y.yml", "extends: [\"x.yml\"]\n")

	_, err := Resolve(filepath.Join(dir, "x.yml"))
	var cycleErr *ExtendsCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected ExtendsCycleError, got %v", err)
	}

	chain := strings.Join(cycleErr.Chain, " ")
	if !strings.Contains(chain, "x.yml") || !strings.Contains(chain, "y.yml") {
		t.Errorf("cycle chain should name both layers, got %v", cycleErr.Chain)
	}
	if cycleErr.Chain[0] != cycleErr.Chain[len(cycleErr.Chain)-1] {
		t.Errorf("chain should close on the revisited layer, got %v", cycleErr.Chain)
	}
}

func TestResolve_DiamondMergedOnce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// B overrides A's check body; C does not. If A were re-applied per branch,
	// the C branch would revert the override.
	writeLayer(t, dir, "a.yml", `
checks:
  - name: x
    test: "a-body"
env:
  - name: TOKEN_A
`)
	writeLayer(t, dir, "b.yml", `
extends: ["a.yml"]
checks:
  - name: x
    test: "b-body"
`)
	writeLayer(t, dir, "c.yml", `
extends: ["a.yml"]
env:
  - name: TOKEN_C
`)
	entry := writeLayer(t, dir, "d.yml", "extends: [\"b.yml\", \"c.yml\"]\n")

	cfg, err := Resolve(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Checks) != 1 || cfg.Checks[0].Test != "b-body" {
		t.Errorf("diamond base must be applied once (B's override must survive), got %+v", cfg.Checks)
	}
	var names []string
	for _, e := range cfg.Env {
		names = append(names, e.Name)
	}
	want := []string{"TOKEN_A", "TOKEN_C"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("env decls = %v, want %v", names, want)
	}
}

func TestResolve_EnvSourceStamped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeLayer(t, dir, "base.yml", `
env:
  - name: BASE_TOKEN
`)
	entry := writeLayer(t, dir, "devduck.yml", `
extends: ["base.yml"]
env:
  - name: LOCAL_TOKEN
`)

	cfg, err := Resolve(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sources := map[string]string{}
	for _, e := range cfg.Env {
		sources[e.Name] = e.Source
	}
	if sources["BASE_TOKEN"] != "base.yml" {
		t.Errorf("BASE_TOKEN source = %q, want base.yml", sources["BASE_TOKEN"])
	}
	if sources["LOCAL_TOKEN"] != "devduck.yml" {
		t.Errorf("LOCAL_TOKEN source = %q, want devduck.yml", sources["LOCAL_TOKEN"])
	}
}

func TestResolve_ExtendsStripped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeLayer(t, dir, "base.yml", "modules: [\"go\"]\n")
	entry := writeLayer(t, dir, "devduck.yml", "extends: [\"base.yml\"]\n")

	raw, err := ResolveRaw(entry)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raw[extendsKey]; ok {
		t.Error("extends key must not appear in the effective config")
	}
}

func TestResolve_MissingReference(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	entry := writeLayer(t, dir, "devduck.yml", "extends: [\"ghost.yml\"]\n")

	_, err := Resolve(entry)
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestResolve_NamespacedReference(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeLayer(t, dir, "duckroot/configs/shared.yml", "env:\n  - name: SHARED_TOKEN\n")
	// The nested layer references devduck:shared.yml; the namespace root comes
	// from the entry layer's devduck_path, not from nested.yml itself.
	writeLayer(t, dir, "sub/nested.yml", "extends: [\"devduck:shared.yml\"]\n")
	entry := writeLayer(t, dir, "devduck.yml", `
devduck_path: "duckroot"
extends: ["sub/nested.yml"]
`)

	cfg, err := Resolve(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Env) != 1 || cfg.Env[0].Name != "SHARED_TOKEN" {
		t.Errorf("namespaced layer not merged, env = %+v", cfg.Env)
	}
}

func TestResolve_RelativeToReferencingLayer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeLayer(t, dir, "sub/base.yml", "modules: [\"go\"]\n")
	writeLayer(t, dir, "sub/mid.yml", "extends: [\"base.yml\"]\n")
	entry := writeLayer(t, dir, "devduck.yml", "extends: [\"sub/mid.yml\"]\n")

	cfg, err := Resolve(entry)
	if err != nil {
		t.Fatalf("relative reference should resolve against the referencing layer: %v", err)
	}
	if !reflect.DeepEqual(cfg.Modules, []string{"go"}) {
		t.Errorf("modules = %v", cfg.Modules)
	}
}
