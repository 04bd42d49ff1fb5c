// SPDX-License-Identifier: MPL-2.0

package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_LoadMissingFile(t *testing.T) {
	t.Parallel()
	st := NewStore(t.TempDir())

	s, err := st.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Steps) != 0 || len(s.ExecutedChecks) != 0 {
		t.Errorf("fresh state should be empty, got %+v", s)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	st := NewStore(t.TempDir())

	s := New()
	s.MarkStep("check-env", true, map[string]any{"missing": []string{}})
	s.RecordCheck("module:node/auth-npm", "check-env", true, "")
	s.InstalledModules["node"] = "/ws/modules/node"
	s.MCPServers = append(s.MCPServers, ServerResult{Name: "context", URL: "http://localhost:8123", Reachable: true})
	s.Finalize(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))

	if err := st.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.StepCompleted("check-env") {
		t.Error("step completion lost in round trip")
	}
	if !loaded.HasCheck("module:node/auth-npm") {
		t.Error("executed check lost in round trip")
	}
	if loaded.InstalledModules["node"] != "/ws/modules/node" {
		t.Error("installed modules lost in round trip")
	}
	if loaded.InstalledAt != "2026-08-26T12:00:00Z" {
		t.Errorf("installedAt = %q", loaded.InstalledAt)
	}
}

func TestStore_SavedShapeMatchesSchema(t *testing.T) {
	t.Parallel()
	st := NewStore(t.TempDir())

	s := New()
	s.RecordCheck("workspace:devduck.yml/lint", "setup-projects", false, "exit 1")
	s.MarkStep("setup-projects", true, nil)
	if err := st.Save(s); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"steps", "installedModules", "executedChecks", "mcpServers"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("persisted state missing %q key", key)
		}
	}
	checks := doc["executedChecks"].([]any)
	first := checks[0].(map[string]any)
	if first["checkId"] != "workspace:devduck.yml/lint" {
		t.Errorf("checkId field = %v", first["checkId"])
	}
}

func TestInstallState_RecordCheckReplaces(t *testing.T) {
	t.Parallel()
	s := New()
	s.RecordCheck("module:go/build", "setup-modules", false, "exit 2")
	s.RecordCheck("module:go/build", "setup-modules", true, "")

	if len(s.ExecutedChecks) != 1 {
		t.Fatalf("expected a single record, got %d", len(s.ExecutedChecks))
	}
	passed, found := s.CheckPassed("module:go/build")
	if !found || !passed {
		t.Errorf("latest outcome should win: passed=%v found=%v", passed, found)
	}
}

func TestStore_Clean(t *testing.T) {
	t.Parallel()
	st := NewStore(t.TempDir())
	if err := st.Save(New()); err != nil {
		t.Fatal(err)
	}
	if err := st.Clean(); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(st.Path()); !os.IsNotExist(err) {
		t.Error("state file should be gone")
	}
	// Cleaning again is a no-op.
	if err := st.Clean(); err != nil {
		t.Errorf("second clean should not error: %v", err)
	}
}

func TestStore_AtomicWriteLeavesNoTemp(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st := NewStore(dir)
	if err := st.Save(New()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, Dir, FileName+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}
}
