// SPDX-License-Identifier: MPL-2.0

// Package state persists installation progress: per-step completion, the set
// of executed checks keyed by their stable identity, and the aggregate fields
// written at the end of a run. The pipeline only ever adds to this record;
// removal happens through the explicit clean action.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Dir is the workspace-relative directory holding devduck state.
const Dir = ".devduck"

// FileName is the state file name inside Dir.
const FileName = "state.json"

type (
	// StepRecord is the persisted outcome of one pipeline step.
	StepRecord struct {
		Completed bool           `json:"completed"`
		Result    map[string]any `json:"result,omitempty"`
	}

	// CheckRecord is the persisted outcome of one executed check.
	CheckRecord struct {
		CheckID string `json:"checkId"`
		Step    string `json:"step"`
		Passed  bool   `json:"passed"`
		Message string `json:"message,omitempty"`
	}

	// ServerResult records a reachability probe against a configured server.
	ServerResult struct {
		Name      string `json:"name"`
		URL       string `json:"url"`
		Reachable bool   `json:"reachable"`
		Message   string `json:"message,omitempty"`
	}

	// InstallState is the full persisted record for one workspace.
	InstallState struct {
		Steps            map[string]StepRecord `json:"steps"`
		InstalledModules map[string]string     `json:"installedModules"`
		ExecutedChecks   []CheckRecord         `json:"executedChecks"`
		MCPServers       []ServerResult        `json:"mcpServers"`
		InstalledAt      string                `json:"installedAt,omitempty"`
	}

	// Store reads and writes the state file for one workspace.
	Store struct {
		path string
	}
)

// New returns an empty InstallState.
func New() *InstallState {
	return &InstallState{
		Steps:            make(map[string]StepRecord),
		InstalledModules: make(map[string]string),
	}
}

// HasCheck reports whether a check with this identity was already executed,
// in this run or a prior one.
func (s *InstallState) HasCheck(checkID string) bool {
	for _, rec := range s.ExecutedChecks {
		if rec.CheckID == checkID {
			return true
		}
	}
	return false
}

// CheckPassed returns the last recorded outcome for a check identity.
// The second return is false when the check was never executed.
func (s *InstallState) CheckPassed(checkID string) (passed, found bool) {
	for _, rec := range s.ExecutedChecks {
		if rec.CheckID == checkID {
			return rec.Passed, true
		}
	}
	return false, false
}

// RecordCheck stores an executed check's outcome, replacing any earlier record
// with the same identity.
func (s *InstallState) RecordCheck(checkID, step string, passed bool, message string) {
	for i, rec := range s.ExecutedChecks {
		if rec.CheckID == checkID {
			s.ExecutedChecks[i] = CheckRecord{CheckID: checkID, Step: step, Passed: passed, Message: message}
			return
		}
	}
	s.ExecutedChecks = append(s.ExecutedChecks, CheckRecord{CheckID: checkID, Step: step, Passed: passed, Message: message})
}

// StepCompleted reports whether a step finished with outcome ok.
func (s *InstallState) StepCompleted(step string) bool {
	return s.Steps[step].Completed
}

// MarkStep records a step's completion flag and result payload.
func (s *InstallState) MarkStep(step string, completed bool, result map[string]any) {
	if s.Steps == nil {
		s.Steps = make(map[string]StepRecord)
	}
	s.Steps[step] = StepRecord{Completed: completed, Result: result}
}

// Finalize stamps the record with the completion time.
func (s *InstallState) Finalize(now time.Time) {
	s.InstalledAt = now.UTC().Format(time.RFC3339)
}

// NewStore returns a Store for the given workspace root.
func NewStore(workspaceRoot string) *Store {
	return &Store{path: filepath.Join(workspaceRoot, Dir, FileName)}
}

// Path returns the state file location.
func (st *Store) Path() string {
	return st.path
}

// Load reads the state file. A missing file yields a fresh empty state.
func (st *Store) Load() (*InstallState, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file '%s': %w", st.path, err)
	}
	if s.Steps == nil {
		s.Steps = make(map[string]StepRecord)
	}
	if s.InstalledModules == nil {
		s.InstalledModules = make(map[string]string)
	}
	return s, nil
}

// Save writes the state atomically (temp file + rename) so an interrupted run
// never leaves a truncated record behind.
func (st *Store) Save(s *InstallState) error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Clean removes the state file. A missing file is not an error.
func (st *Store) Clean() error {
	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
