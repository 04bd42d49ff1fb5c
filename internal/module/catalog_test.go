// SPDX-License-Identifier: MPL-2.0

package module

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModule(t *testing.T, root, name, descriptor string) {
	t.Helper()
	dir := filepath.Join(root, ModulesDirName, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorName), []byte(descriptor), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_TiersAndBuiltins(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	project := t.TempDir()

	writeModule(t, workspace, "node", `
checks:
  - name: node-installed
    test: node --version
`)
	writeModule(t, project, "terraform", `
name: terraform
dependencies: [git]
`)

	// A fetched repo contributing a module.
	repoModules := filepath.Join(workspace, ".devduck", "repos", "tools", ModulesDirName, "ansible")
	if err := os.MkdirAll(repoModules, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repoModules, DescriptorName), []byte("name: ansible\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := Discover(workspace, project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tiers := make(map[string]Tier)
	for _, d := range cat.InPriorityOrder() {
		if _, seen := tiers[d.Name]; !seen {
			tiers[d.Name] = d.Tier
		}
	}

	want := map[string]Tier{
		"node":      TierWorkspace,
		"terraform": TierProject,
		"ansible":   TierExternal,
		"git":       TierBuiltin,
		"docker":    TierBuiltin,
	}
	for name, tier := range want {
		if got, ok := tiers[name]; !ok || got != tier {
			t.Errorf("module %q: tier = %v (found=%v), want %v", name, got, ok, tier)
		}
	}
}

func TestDiscover_NameDefaultsToDirectory(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	writeModule(t, workspace, "mytool", "checks: []\n")

	cat, err := Discover(workspace, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range cat.InPriorityOrder() {
		if d.Tier == TierWorkspace && d.Name == "mytool" {
			return
		}
	}
	t.Error("module name should default to its directory name")
}

func TestDiscover_MissingDirsAreSkipped(t *testing.T) {
	t.Parallel()
	cat, err := Discover(t.TempDir(), "")
	if err != nil {
		t.Fatalf("missing modules dirs must not error: %v", err)
	}
	// Only builtins remain.
	for _, d := range cat.InPriorityOrder() {
		if d.Tier != TierBuiltin {
			t.Errorf("unexpected non-builtin module %q", d.Name)
		}
	}
}

func TestLoadDescriptor_HooksAndChecks(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	writeModule(t, workspace, "node", `
dependencies: [git]
checks:
  - name: auth-npm
    type: auth
    var: NPM_TOKEN
    test: npm whoami
    install: npm login
  - name: node-installed
    test: node --version
    tier: pre-install
hooks:
  pre-install: echo preparing
  install: ./scripts/install.sh
`)

	d, err := LoadDescriptor(filepath.Join(workspace, ModulesDirName, "node"), TierWorkspace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "node" {
		t.Errorf("Name = %q", d.Name)
	}
	if len(d.Checks) != 2 || d.Checks[0].Var != "NPM_TOKEN" {
		t.Errorf("checks not parsed: %+v", d.Checks)
	}
	if d.Hooks[HookInstall] != "./scripts/install.sh" {
		t.Errorf("hooks not parsed: %+v", d.Hooks)
	}
}
