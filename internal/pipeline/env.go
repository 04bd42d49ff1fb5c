// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/devduck/devduck/internal/check"
	"github.com/devduck/devduck/internal/envfile"
	"github.com/devduck/devduck/internal/module"
)

// envRequirement is one variable the workspace needs, with enough provenance
// to tell the user who asked for it.
type envRequirement struct {
	Name        string
	Description string
	Default     *string
	Optional    bool
	// Source says where the requirement was declared: a config layer file, a
	// module, a project, or a provider.
	Source   string
	Identity check.Identity
}

// runCheckEnv validates every declared environment variable: workspace config
// declarations, auth checks of the resolved modules and configured projects,
// and provider requirements. Missing required variables halt the run with a
// needs_input outcome listing each one with its provenance.
//
// check-env-again re-runs the same validation after downloads, when fetched
// repos may have contributed new modules (and thus new auth variables).
func (p *Pipeline) runCheckEnv(ctx context.Context, step StepID) (Outcome, map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, nil, err
	}

	reqs := p.baseEnvRequirements()
	modReqs, err := p.moduleEnvRequirements()
	switch {
	case err == nil:
		reqs = append(reqs, modReqs...)
	case step == StepCheckEnv && isUnknownModule(err):
		// A selected module may only arrive with download-repos; its variables
		// are validated by check-env-again instead.
		p.logger.Info("module selection not yet satisfiable, deferring", "reason", err)
	default:
		return OutcomeFailed, nil, err
	}

	lookup, err := envfile.NewLookup(p.opts.WorkspaceRoot)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	var (
		checked         int
		skipped         int
		defaulted       []string
		missing         []envRequirement
		optionalMissing []string
	)

	for _, req := range reqs {
		id := req.Identity.String()
		// Any recorded result skips re-validation: this step only records
		// passes, and a richer result recorded by a setup step stands.
		if p.st.HasCheck(id) {
			skipped++
			continue
		}
		checked++

		if _, ok := lookup.Get(req.Name); ok {
			p.st.RecordCheck(id, string(step), true, "")
			continue
		}
		if req.Default != nil {
			// Declared default applies; the variable is effectively set.
			defaulted = append(defaulted, req.Name)
			p.st.RecordCheck(id, string(step), true, "using declared default")
			continue
		}
		if req.Optional {
			optionalMissing = append(optionalMissing, req.Name)
			continue
		}
		// Missing required variables are NOT recorded, so the next run
		// re-checks them once the user has set them.
		missing = append(missing, req)
	}

	result := map[string]any{
		"checked": checked,
		"skipped": skipped,
	}
	if len(defaulted) > 0 {
		result["defaults"] = defaulted
	}
	if len(optionalMissing) > 0 {
		result["optionalMissing"] = optionalMissing
		for _, name := range optionalMissing {
			p.logger.Warn("optional variable not set", "var", name)
		}
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		p.printf("Missing required environment variables:")
		for _, req := range missing {
			names = append(names, req.Name)
			line := fmt.Sprintf("  %s (declared by %s)", req.Name, req.Source)
			if req.Description != "" {
				line += ": " + req.Description
			}
			p.printf("%s", line)
		}
		p.printf("Set them in the environment or in %s and re-run.",
			filepath.Join(p.opts.WorkspaceRoot, envfile.FileName))
		result["missing"] = names
		return OutcomeNeedsInput, result, nil
	}

	return OutcomeOK, result, nil
}

// baseEnvRequirements collects requirements that never depend on module
// discovery: config declarations, project auth checks, provider requirements.
func (p *Pipeline) baseEnvRequirements() []envRequirement {
	var reqs []envRequirement

	for _, decl := range p.cfg.Env {
		source := decl.Source
		if source == "" {
			source = filepath.Base(p.configPath)
		}
		reqs = append(reqs, envRequirement{
			Name:        decl.Name,
			Description: decl.Description,
			Default:     decl.Default,
			Optional:    decl.Optional,
			Source:      source,
			Identity:    check.NewIdentity(check.ScopeWorkspace, source, "env-"+decl.Name),
		})
	}

	for _, spec := range p.cfg.Checks {
		if spec.Type != check.TypeAuth || spec.Var == "" {
			continue
		}
		source := filepath.Base(p.configPath)
		reqs = append(reqs, envRequirement{
			Name:        spec.Var,
			Description: spec.Docs,
			Optional:    spec.Optional,
			Source:      "workspace checks",
			Identity:    check.NewIdentity(check.ScopeWorkspace, source, spec.Name),
		})
	}

	for _, proj := range p.cfg.Projects {
		for _, spec := range proj.Checks {
			if spec.Type != check.TypeAuth || spec.Var == "" {
				continue
			}
			reqs = append(reqs, envRequirement{
				Name:        spec.Var,
				Description: spec.Docs,
				Optional:    spec.Optional,
				Source:      "project " + proj.Src,
				Identity:    check.NewIdentity(check.ScopeProject, proj.Src, spec.Name),
			})
		}
	}

	for _, name := range p.cfg.Providers {
		prov, ok := p.lookupProvider(name)
		if !ok {
			p.logger.Warn("unknown provider in configuration", "provider", name)
			continue
		}
		for _, env := range prov.RequiredEnv() {
			reqs = append(reqs, envRequirement{
				Name:        env.Name,
				Description: env.Description,
				Optional:    env.Optional,
				Source:      "provider " + prov.Name(),
				Identity:    check.NewIdentity(check.ScopeWorkspace, "provider-"+prov.Name(), "env-"+env.Name),
			})
		}
	}

	return reqs
}

// moduleEnvRequirements collects the auth variables of the resolved module
// set.
func (p *Pipeline) moduleEnvRequirements() ([]envRequirement, error) {
	modules, err := p.resolveModules()
	if err != nil {
		return nil, err
	}

	var reqs []envRequirement
	for _, mod := range modules {
		for _, spec := range mod.Checks {
			if spec.Type != check.TypeAuth || spec.Var == "" {
				continue
			}
			reqs = append(reqs, envRequirement{
				Name:        spec.Var,
				Description: spec.Docs,
				Optional:    spec.Optional,
				Source:      "module " + mod.Name,
				Identity:    check.NewIdentity(check.ScopeModule, mod.Name, spec.Name),
			})
		}
	}
	return reqs, nil
}

// isUnknownModule reports whether err is a selection naming a module absent
// from every tier.
func isUnknownModule(err error) bool {
	var unknown *module.UnknownModuleError
	return errors.As(err, &unknown)
}

// resolveModules discovers the catalog fresh and resolves the configured
// selection. Discovery is repeated per step because downloads can add
// external-tier modules mid-run.
func (p *Pipeline) resolveModules() ([]*module.Descriptor, error) {
	cat, err := module.Discover(p.opts.WorkspaceRoot, p.opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	return module.Resolve(p.cfg.Modules, cat)
}
