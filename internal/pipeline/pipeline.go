// SPDX-License-Identifier: MPL-2.0

// Package pipeline implements the installation state machine: a fixed,
// resumable sequence of steps that validate environment variables, fetch
// external repos and projects, run per-module and per-project checks in
// dependency tiers, and verify the result.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/devduck/devduck/internal/check"
	"github.com/devduck/devduck/internal/configfile"
	"github.com/devduck/devduck/internal/envfile"
	"github.com/devduck/devduck/internal/fetch"
	"github.com/devduck/devduck/internal/provider"
	"github.com/devduck/devduck/internal/state"
)

// Outcome is the result of one step, and of the run as a whole.
type Outcome int

const (
	// OutcomeOK means the step completed.
	OutcomeOK Outcome = iota
	// OutcomeNeedsInput means the step halted recoverably (typically a
	// missing required environment variable); a re-run can resume.
	OutcomeNeedsInput
	// OutcomeFailed means a required check failed hard or a precondition
	// could not be met.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNeedsInput:
		return "needs_input"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExitCode maps the outcome to the CLI exit code contract.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeOK:
		return 0
	case OutcomeNeedsInput:
		return 2
	default:
		return 1
	}
}

// StepID names one pipeline step.
type StepID string

// The fixed step sequence. The order is terminal and not reorderable by
// configuration.
const (
	StepCheckEnv         StepID = "check-env"
	StepDownloadRepos    StepID = "download-repos"
	StepDownloadProjects StepID = "download-projects"
	StepCheckEnvAgain    StepID = "check-env-again"
	StepSetupModules     StepID = "setup-modules"
	StepSetupProjects    StepID = "setup-projects"
	StepVerify           StepID = "verify-installation"
)

// Steps returns the full sequence in execution order.
func Steps() []StepID {
	return []StepID{
		StepCheckEnv,
		StepDownloadRepos,
		StepDownloadProjects,
		StepCheckEnvAgain,
		StepSetupModules,
		StepSetupProjects,
		StepVerify,
	}
}

// ParseStepID validates a user-supplied step name.
func ParseStepID(s string) (StepID, error) {
	for _, id := range Steps() {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown step %q (valid steps: %v)", s, Steps())
}

// Options configures a Pipeline. WorkspaceRoot is required; everything else
// has a usable default.
type Options struct {
	WorkspaceRoot string
	ProjectRoot   string

	// AssumeYes answers every remediation prompt affirmatively (--yes).
	AssumeYes bool
	// Confirm asks the user whether to run a remediation command. When nil
	// and AssumeYes is false, remediation is skipped.
	Confirm func(prompt string) bool

	Logger    *log.Logger
	Out       io.Writer
	Runner    *check.Runner
	Fetcher   *fetch.Fetcher
	Providers *provider.Registry
}

// Pipeline drives the step sequence for one workspace.
type Pipeline struct {
	opts Options

	cfg        *configfile.EffectiveConfig
	configPath string
	store      *state.Store
	st         *state.InstallState

	logger    *log.Logger
	out       io.Writer
	runner    *check.Runner
	fetcher   *fetch.Fetcher
	providers *provider.Registry
}

// New locates and resolves the workspace configuration and loads prior
// install state. Configuration and resolution errors abort immediately with
// no state written.
func New(opts Options) (*Pipeline, error) {
	configPath, err := configfile.Find(opts.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := configfile.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	store := state.NewStore(opts.WorkspaceRoot)
	st, err := store.Load()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts:       opts,
		cfg:        cfg,
		configPath: configPath,
		store:      store,
		st:         st,
		logger:     opts.Logger,
		out:        opts.Out,
		runner:     opts.Runner,
		fetcher:    opts.Fetcher,
		providers:  opts.Providers,
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	if p.out == nil {
		p.out = io.Discard
	}
	if p.runner == nil {
		p.runner = &check.Runner{WorkDir: opts.WorkspaceRoot}
	}
	if p.fetcher == nil {
		p.fetcher = &fetch.Fetcher{Stdout: p.out, Stderr: p.out}
	}
	if p.providers == nil {
		p.providers = provider.Default()
	}
	return p, nil
}

// Config exposes the effective configuration (read-only use).
func (p *Pipeline) Config() *configfile.EffectiveConfig {
	return p.cfg
}

// Run executes all steps in order, honoring the halting rules: check-env and
// check-env-again halt the run on any non-ok outcome; setup steps halt on
// failure; download steps log warnings and continue.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	for _, id := range Steps() {
		outcome, err := p.RunStep(ctx, id)
		if err != nil {
			return OutcomeFailed, err
		}
		if outcome != OutcomeOK && p.halts(id, outcome) {
			return outcome, nil
		}
	}
	return OutcomeOK, nil
}

// halts reports whether a non-ok step outcome stops the whole run.
func (p *Pipeline) halts(id StepID, outcome Outcome) bool {
	switch id {
	case StepCheckEnv, StepCheckEnvAgain:
		return true
	case StepSetupModules, StepSetupProjects:
		return outcome == OutcomeFailed
	case StepVerify:
		return true
	default:
		// Download steps aggregate failures as warnings.
		return false
	}
}

// RunStep executes a single step, records its outcome in the install state,
// and persists the state.
func (p *Pipeline) RunStep(ctx context.Context, id StepID) (Outcome, error) {
	p.logger.Info("running step", "step", id)

	var (
		outcome Outcome
		result  map[string]any
		err     error
	)

	switch id {
	case StepCheckEnv, StepCheckEnvAgain:
		outcome, result, err = p.runCheckEnv(ctx, id)
	case StepDownloadRepos:
		outcome, result, err = p.runDownloadRepos(ctx)
	case StepDownloadProjects:
		outcome, result, err = p.runDownloadProjects(ctx)
	case StepSetupModules:
		outcome, result, err = p.runSetupModules(ctx)
	case StepSetupProjects:
		outcome, result, err = p.runSetupProjects(ctx)
	case StepVerify:
		outcome, result, err = p.runVerify(ctx)
	default:
		return OutcomeFailed, fmt.Errorf("unknown step %q", id)
	}
	if err != nil {
		return OutcomeFailed, err
	}

	p.st.MarkStep(string(id), outcome == OutcomeOK, result)
	if err := p.store.Save(p.st); err != nil {
		return OutcomeFailed, err
	}

	p.logger.Info("step finished", "step", id, "outcome", outcome)
	return outcome, nil
}

// printf writes user-facing step output.
func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// lookupProvider resolves a configured provider reference. "kind/name"
// addresses one registry entry exactly; a bare name searches all kinds.
func (p *Pipeline) lookupProvider(ref string) (provider.Provider, bool) {
	if kind, name, ok := strings.Cut(ref, "/"); ok {
		return p.providers.Lookup(provider.Kind(kind), name)
	}
	return p.providers.LookupByName(ref)
}

// confirm asks whether to run a remediation command.
func (p *Pipeline) confirm(prompt string) bool {
	if p.opts.AssumeYes {
		return true
	}
	if p.opts.Confirm == nil {
		return false
	}
	return p.opts.Confirm(prompt)
}

// checkEnviron builds the environment for shell probes and install commands:
// the process environment, workspace .env fallbacks for unset variables, and
// declared defaults for variables set nowhere else.
func (p *Pipeline) checkEnviron(lookup envfile.Lookup) []string {
	env := os.Environ()
	for name, value := range lookup.File {
		if _, set := os.LookupEnv(name); !set {
			env = append(env, name+"="+value)
		}
	}
	for _, decl := range p.cfg.Env {
		if decl.Default == nil {
			continue
		}
		if _, ok := lookup.Get(decl.Name); !ok {
			env = append(env, decl.Name+"="+*decl.Default)
		}
	}
	return env
}
