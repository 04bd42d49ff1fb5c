// SPDX-License-Identifier: MPL-2.0

package configfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFind_SingleCandidate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "devduck.yml"), []byte("modules: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := Find(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "devduck.yml" {
		t.Errorf("path = %q", path)
	}
}

func TestFind_NoCandidates(t *testing.T) {
	t.Parallel()
	_, err := Find(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestFind_MultipleCandidatesIsHardError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"devduck.yml", ".devduck.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := Find(dir)
	var multiErr *MultipleCandidatesError
	if !errors.As(err, &multiErr) {
		t.Fatalf("expected MultipleCandidatesError, got %v", err)
	}
	if len(multiErr.Found) != 2 {
		t.Errorf("Found = %v", multiErr.Found)
	}
}

func TestDecodeEffective_TypedAndExtra(t *testing.T) {
	t.Parallel()
	merged := map[string]any{
		"devduck_path": "/opt/devduck",
		"modules":      []any{"go", "*"},
		"repos":        []any{"https://example.com/tools.git", map[string]any{"name": "infra", "url": "https://example.com/infra.git"}},
		"projects":     []any{map[string]any{"src": "https://example.com/app.git", "checks": []any{map[string]any{"name": "build", "test": "make build"}}}},
		"env":          []any{map[string]any{"name": "TOKEN", "optional": false}},
		"mcpServers":   []any{map[string]any{"name": "context", "url": "http://localhost:8123"}},
		"customKnob":   map[string]any{"depth": 3},
	}

	cfg, err := DecodeEffective(merged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DevduckPath != "/opt/devduck" {
		t.Errorf("DevduckPath = %q", cfg.DevduckPath)
	}
	if len(cfg.Repos) != 2 || cfg.Repos[0].URL != "https://example.com/tools.git" {
		t.Errorf("bare repo URL string not decoded: %+v", cfg.Repos)
	}
	if cfg.Repos[1].Name != "infra" {
		t.Errorf("repo mapping not decoded: %+v", cfg.Repos[1])
	}
	if len(cfg.Projects) != 1 || cfg.Projects[0].Checks[0].Test != "make build" {
		t.Errorf("projects not decoded: %+v", cfg.Projects)
	}
	if _, ok := cfg.Extra["customKnob"]; !ok {
		t.Error("unknown settings must be preserved in Extra")
	}
	if _, ok := cfg.Extra["modules"]; ok {
		t.Error("typed fields must not leak into Extra")
	}
}
