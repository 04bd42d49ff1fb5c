// SPDX-License-Identifier: MPL-2.0

package provider

import "github.com/devduck/devduck/internal/check"

// Default returns the registry of compiled-in providers.
func Default() *Registry {
	r := NewRegistry()
	for _, p := range []Provider{
		githubActions{},
		circleCI{},
		jira{},
		slack{},
	} {
		// Compiled-in set is duplicate-free by construction.
		_ = r.Register(p)
	}
	return r
}

type githubActions struct{}

func (githubActions) Kind() Kind   { return KindCI }
func (githubActions) Name() string { return "github-actions" }

func (githubActions) RequiredEnv() []EnvRequirement {
	return []EnvRequirement{
		{Name: "GITHUB_TOKEN", Description: "token with repo and workflow scopes"},
	}
}

func (githubActions) Probe() *check.Spec {
	return &check.Spec{
		Name: "github-api",
		Test: "HTTP GET https://api.github.com",
		Docs: "GitHub API unreachable; check network access and proxy settings.",
	}
}

type circleCI struct{}

func (circleCI) Kind() Kind   { return KindCI }
func (circleCI) Name() string { return "circleci" }

func (circleCI) RequiredEnv() []EnvRequirement {
	return []EnvRequirement{
		{Name: "CIRCLECI_TOKEN", Description: "CircleCI personal API token"},
	}
}

func (circleCI) Probe() *check.Spec {
	return &check.Spec{
		Name: "circleci-api",
		Test: "HTTP GET https://circleci.com/api/v2/me",
		Docs: "CircleCI API unreachable; check CIRCLECI_TOKEN and network access.",
	}
}

type jira struct{}

func (jira) Kind() Kind   { return KindTracker }
func (jira) Name() string { return "jira" }

func (jira) RequiredEnv() []EnvRequirement {
	return []EnvRequirement{
		{Name: "JIRA_BASE_URL", Description: "base URL of the Jira instance"},
		{Name: "JIRA_TOKEN", Description: "Jira API token"},
	}
}

func (jira) Probe() *check.Spec { return nil }

type slack struct{}

func (slack) Kind() Kind   { return KindMessenger }
func (slack) Name() string { return "slack" }

func (slack) RequiredEnv() []EnvRequirement {
	return []EnvRequirement{
		{Name: "SLACK_WEBHOOK_URL", Description: "incoming webhook for workspace notifications", Optional: true},
	}
}

func (slack) Probe() *check.Spec { return nil }
