// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devduck/devduck/internal/check"
	"github.com/devduck/devduck/internal/envfile"
	"github.com/devduck/devduck/internal/module"
)

// checkTask is one check bound to its owner and execution directory.
type checkTask struct {
	spec    check.Spec
	id      check.Identity
	owner   string
	workDir string
}

// setupRun carries the per-step execution context shared by every task:
// variable lookup, the composed environment, and the running tallies.
type setupRun struct {
	p       *Pipeline
	step    StepID
	lookup  envfile.Lookup
	environ []string

	executed   int
	passed     int
	failed     int
	skipped    int
	remediated int
	// hardFailures lists required checks that stayed failed; any entry halts
	// the step before the next tier starts.
	hardFailures []string
}

func (p *Pipeline) newSetupRun(step StepID) (*setupRun, error) {
	lookup, err := envfile.NewLookup(p.opts.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	return &setupRun{
		p:       p,
		step:    step,
		lookup:  lookup,
		environ: p.checkEnviron(lookup),
	}, nil
}

// runSetupModules executes module lifecycle hooks and checks. Hooks run in
// their fixed phase order across all modules; checks run between the
// pre-install and install hook phases, tier by tier across all modules, with
// module order (dependencies first) as the secondary axis. Any hook failure
// fails the whole step; a required check failure halts before the next tier.
func (p *Pipeline) runSetupModules(ctx context.Context) (Outcome, map[string]any, error) {
	modules, err := p.resolveModules()
	if err != nil {
		return OutcomeFailed, nil, err
	}
	run, err := p.newSetupRun(StepSetupModules)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	if errs := p.runHookPhase(ctx, modules, module.HookPreInstall, run.environ); len(errs) > 0 {
		return OutcomeFailed, map[string]any{"hookFailures": errorStrings(errs)}, nil
	}

	halted := run.runTiers(ctx, p.moduleTasks(modules))

	result := run.result()
	if halted {
		return OutcomeFailed, result, nil
	}

	for _, hook := range []module.Hook{module.HookInstall, module.HookPostInstall} {
		if errs := p.runHookPhase(ctx, modules, hook, run.environ); len(errs) > 0 {
			result["hookFailures"] = errorStrings(errs)
			return OutcomeFailed, result, nil
		}
	}

	for _, mod := range modules {
		p.st.InstalledModules[mod.Name] = mod.Path
	}
	result["modules"] = len(modules)
	return OutcomeOK, result, nil
}

// runSetupProjects executes workspace-level checks and each configured
// project's checks with the same tier-primary scheduling as modules. Projects
// have no lifecycle hooks.
func (p *Pipeline) runSetupProjects(ctx context.Context) (Outcome, map[string]any, error) {
	run, err := p.newSetupRun(StepSetupProjects)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	var tasks []checkTask
	for _, spec := range p.cfg.Checks {
		tasks = append(tasks, checkTask{
			spec:    spec,
			id:      check.NewIdentity(check.ScopeWorkspace, filepath.Base(p.configPath), spec.Name),
			owner:   "workspace",
			workDir: p.opts.WorkspaceRoot,
		})
	}
	for _, proj := range p.cfg.Projects {
		workDir := ProjectDir(p.opts.WorkspaceRoot, proj.Src)
		if _, err := os.Stat(workDir); err != nil {
			// Checkout missing (fetch failed or skipped); checks still run,
			// anchored at the workspace root.
			workDir = p.opts.WorkspaceRoot
		}
		for _, spec := range proj.Checks {
			tasks = append(tasks, checkTask{
				spec:    spec,
				id:      check.NewIdentity(check.ScopeProject, proj.Src, spec.Name),
				owner:   "project " + proj.Src,
				workDir: workDir,
			})
		}
	}

	halted := run.runTiers(ctx, tasks)
	result := run.result()
	result["projects"] = len(p.cfg.Projects)
	if halted {
		return OutcomeFailed, result, nil
	}
	return OutcomeOK, result, nil
}

// moduleTasks flattens every module check into tasks, preserving the resolved
// (dependencies-first) module order within each tier.
func (p *Pipeline) moduleTasks(modules []*module.Descriptor) []checkTask {
	var tasks []checkTask
	for _, mod := range modules {
		workDir := p.moduleWorkDir(mod)
		for _, spec := range mod.Checks {
			tasks = append(tasks, checkTask{
				spec:    spec,
				id:      check.NewIdentity(check.ScopeModule, mod.Name, spec.Name),
				owner:   "module " + mod.Name,
				workDir: workDir,
			})
		}
	}
	return tasks
}

// moduleWorkDir returns where a module's checks and hooks run. Built-in
// modules have no directory of their own and run at the workspace root.
func (p *Pipeline) moduleWorkDir(mod *module.Descriptor) string {
	if mod.Tier == module.TierBuiltin {
		return p.opts.WorkspaceRoot
	}
	return mod.Path
}

// runTiers executes tasks tier by tier. A required failure finishes the
// current tier, then halts; later tiers never start. Returns true when halted.
func (r *setupRun) runTiers(ctx context.Context, tasks []checkTask) bool {
	for _, tier := range check.TierOrder() {
		for _, task := range tasks {
			if task.spec.EffectiveTier() != tier {
				continue
			}
			r.runTask(ctx, task)
		}
		if len(r.hardFailures) > 0 {
			for _, name := range r.hardFailures {
				r.p.printf("required check failed: %s", name)
			}
			return true
		}
	}
	return false
}

// runTask executes one check with skip, auth-variable, and remediation
// semantics, and records the outcome.
func (r *setupRun) runTask(ctx context.Context, task checkTask) {
	p := r.p
	id := task.id.String()

	// Auth checks with no install command were fully handled by check-env;
	// there is nothing to execute here.
	if task.spec.Type == check.TypeAuth && task.spec.Install == "" {
		return
	}

	if recorded, found := p.st.CheckPassed(id); found && (recorded || task.spec.Optional) {
		r.skipped++
		p.logger.Debug("check already executed", "check", id)
		return
	}

	r.executed++
	result := r.execute(ctx, task)

	if !result.Passed && task.spec.Install != "" && !result.TimedOut {
		prompt := fmt.Sprintf("Check %q failed (%s). Run install command?", task.spec.Name, task.owner)
		if p.confirm(prompt) {
			r.remediated++
			runner := r.runnerFor(task.workDir)
			if err := runner.RunCommand(ctx, task.spec.Install); err != nil {
				p.logger.Warn("install command failed", "check", id, "error", err)
			}
			// One retry after remediation, never more.
			result = r.execute(ctx, task)
		}
	}

	p.st.RecordCheck(id, string(r.step), result.Passed, result.Message)

	if result.Passed {
		r.passed++
		p.logger.Info("check passed", "check", id)
		return
	}
	r.failed++
	if task.spec.Optional {
		p.logger.Warn("optional check failed", "check", id, "message", result.Message)
		return
	}
	p.logger.Error("check failed", "check", id, "message", result.Message)
	if task.spec.Docs != "" {
		p.printf("  %s", task.spec.Docs)
	}
	r.hardFailures = append(r.hardFailures, id)
}

// execute runs the probe itself. Auth checks verify their variable first; an
// unset variable fails without running the probe.
func (r *setupRun) execute(ctx context.Context, task checkTask) check.Result {
	if task.spec.Type == check.TypeAuth && task.spec.Var != "" {
		if _, ok := r.lookup.Get(task.spec.Var); !ok {
			return check.Result{Message: fmt.Sprintf("variable %s not set", task.spec.Var)}
		}
	}
	return r.runnerFor(task.workDir).Run(ctx, task.spec)
}

// runnerFor clones the pipeline runner with the task's working directory and
// the composed environment.
func (r *setupRun) runnerFor(workDir string) *check.Runner {
	runner := *r.p.runner
	runner.WorkDir = workDir
	runner.Env = r.environ
	return &runner
}

func (r *setupRun) result() map[string]any {
	result := map[string]any{
		"executed": r.executed,
		"passed":   r.passed,
		"failed":   r.failed,
		"skipped":  r.skipped,
	}
	if r.remediated > 0 {
		result["remediated"] = r.remediated
	}
	if len(r.hardFailures) > 0 {
		result["hardFailures"] = r.hardFailures
	}
	return result
}

// runHookPhase runs one lifecycle phase for every module that declares it.
// Failures are collected per module so every module's hook gets a chance, but
// any failure makes the phase (and the step) fail.
func (p *Pipeline) runHookPhase(ctx context.Context, modules []*module.Descriptor, hook module.Hook, environ []string) []error {
	var errs []error
	for _, mod := range modules {
		script, ok := mod.Hooks[hook]
		if !ok || script == "" {
			continue
		}
		p.logger.Info("running hook", "module", mod.Name, "phase", hook)

		runner := *p.runner
		runner.WorkDir = p.moduleWorkDir(mod)
		runner.Env = environ
		if err := runner.RunCommand(ctx, script); err != nil {
			p.logger.Error("hook failed", "module", mod.Name, "phase", hook, "error", err)
			errs = append(errs, fmt.Errorf("module %s %s hook: %w", mod.Name, hook, err))
		}
	}
	return errs
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
