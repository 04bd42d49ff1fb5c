// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/devduck/devduck/internal/check"
	"github.com/devduck/devduck/internal/state"
)

// runVerify is the terminal step: it confirms every resolved module was
// installed, probes configured MCP servers and provider endpoints, prints the
// final check summary, and stamps the state with the completion time.
//
// Required failures were already fatal in the setup steps, so anything still
// failing here is reported as a warning, not a step failure.
func (p *Pipeline) runVerify(ctx context.Context) (Outcome, map[string]any, error) {
	for _, id := range Steps() {
		if id == StepVerify {
			break
		}
		if !p.st.StepCompleted(string(id)) {
			p.logger.Warn("verifying with an incomplete prior step", "step", id)
		}
	}

	modules, err := p.resolveModules()
	if err != nil {
		return OutcomeFailed, nil, err
	}

	var notInstalled []string
	for _, mod := range modules {
		if _, ok := p.st.InstalledModules[mod.Name]; !ok {
			notInstalled = append(notInstalled, mod.Name)
			p.logger.Warn("module resolved but not installed", "module", mod.Name)
		}
	}

	p.probeServers(ctx)
	p.probeProviders(ctx)

	var passed, failed int
	for _, rec := range p.st.ExecutedChecks {
		if rec.Passed {
			passed++
		} else {
			failed++
		}
	}
	var unreachable int
	for _, srv := range p.st.MCPServers {
		if !srv.Reachable {
			unreachable++
		}
	}
	skipped, optionalMissing := p.summarizeSteps()

	p.printf("Installation summary:")
	p.printf("  modules installed: %d", len(p.st.InstalledModules))
	p.printf("  checks passed:     %d", passed)
	if failed > 0 {
		p.printf("  checks failed:     %d", failed)
		for _, rec := range p.st.ExecutedChecks {
			if !rec.Passed {
				p.printf("    %s: %s", rec.CheckID, rec.Message)
			}
		}
	}
	if skipped > 0 {
		p.printf("  checks skipped:    %d", skipped)
	}
	if len(optionalMissing) > 0 {
		p.printf("  optional missing:  %s", strings.Join(optionalMissing, ", "))
	}
	if len(p.st.MCPServers) > 0 {
		p.printf("  servers reachable: %d/%d", len(p.st.MCPServers)-unreachable, len(p.st.MCPServers))
	}

	p.st.Finalize(time.Now())

	result := map[string]any{
		"modules":       len(p.st.InstalledModules),
		"checksPassed":  passed,
		"checksFailed":  failed,
		"serversProbed": len(p.st.MCPServers),
	}
	if len(notInstalled) > 0 {
		result["notInstalled"] = notInstalled
	}
	return OutcomeOK, result, nil
}

// summarizeSteps aggregates skip counts and optional-missing variable names
// from the recorded step results. Values may come from this run (ints) or a
// reloaded state file (JSON numbers), so both shapes are accepted.
func (p *Pipeline) summarizeSteps() (skipped int, optionalMissing []string) {
	for _, rec := range p.st.Steps {
		switch n := rec.Result["skipped"].(type) {
		case int:
			skipped += n
		case float64:
			skipped += int(n)
		}
		switch names := rec.Result["optionalMissing"].(type) {
		case []string:
			optionalMissing = append(optionalMissing, names...)
		case []any:
			for _, v := range names {
				if s, ok := v.(string); ok {
					optionalMissing = append(optionalMissing, s)
				}
			}
		}
	}
	return skipped, optionalMissing
}

// probeServers runs a fast reachability probe against every configured MCP
// server and replaces the recorded results wholesale.
func (p *Pipeline) probeServers(ctx context.Context) {
	if len(p.cfg.MCPServers) == 0 {
		return
	}

	results := make([]state.ServerResult, 0, len(p.cfg.MCPServers))
	for _, srv := range p.cfg.MCPServers {
		res := p.runner.Run(ctx, check.Spec{
			Name: srv.Name,
			Test: "HTTP GET " + srv.URL,
		})
		if res.Passed {
			p.logger.Info("server reachable", "server", srv.Name)
		} else {
			p.logger.Warn("server unreachable", "server", srv.Name, "message", res.Message)
		}
		results = append(results, state.ServerResult{
			Name:      srv.Name,
			URL:       srv.URL,
			Reachable: res.Passed,
			Message:   res.Message,
		})
	}
	p.st.MCPServers = results
}

// probeProviders runs the optional reachability probe of each configured
// provider, with the usual identity-based skip.
func (p *Pipeline) probeProviders(ctx context.Context) {
	for _, name := range p.cfg.Providers {
		prov, ok := p.lookupProvider(name)
		if !ok {
			continue
		}
		spec := prov.Probe()
		if spec == nil {
			continue
		}

		id := check.NewIdentity(check.ScopeWorkspace, "provider-"+prov.Name(), spec.Name).String()
		if recorded, found := p.st.CheckPassed(id); found && recorded {
			continue
		}

		res := p.runner.Run(ctx, *spec)
		p.st.RecordCheck(id, string(StepVerify), res.Passed, res.Message)
		if !res.Passed {
			p.logger.Warn("provider probe failed", "provider", prov.Name(), "message", res.Message)
			if spec.Docs != "" {
				p.printf("  %s", spec.Docs)
			}
		}
	}
}
