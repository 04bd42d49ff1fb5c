// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"path/filepath"

	"github.com/devduck/devduck/internal/fetch"
	"github.com/devduck/devduck/internal/state"
)

// ProjectsDirName is the workspace subdirectory project sources are cloned
// into.
const ProjectsDirName = "projects"

// ReposDir returns where fetched repos live for a workspace. Module discovery
// scans the same location for external-tier modules.
func ReposDir(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, state.Dir, "repos")
}

// ProjectDir returns the checkout directory for a project source.
func ProjectDir(workspaceRoot, src string) string {
	return filepath.Join(workspaceRoot, ProjectsDirName, fetch.DirName(src))
}

// runDownloadRepos fetches every configured repo. Individual fetch failures
// are warnings, not step failures: a repo may be temporarily unreachable while
// the rest of the installation can proceed.
func (p *Pipeline) runDownloadRepos(ctx context.Context) (Outcome, map[string]any, error) {
	reposDir := ReposDir(p.opts.WorkspaceRoot)

	var fetched, failed []string
	for _, repo := range p.cfg.Repos {
		name := repo.Name
		if name == "" {
			name = fetch.DirName(repo.URL)
		}
		dest := filepath.Join(reposDir, name)

		if err := p.fetcher.CloneOrUpdate(ctx, repo.URL, dest); err != nil {
			p.logger.Warn("repo fetch failed", "repo", repo.URL, "error", err)
			failed = append(failed, repo.URL)
			continue
		}
		p.logger.Info("repo ready", "repo", repo.URL, "dir", dest)
		fetched = append(fetched, name)
	}

	result := map[string]any{"fetched": len(fetched)}
	if len(failed) > 0 {
		result["failed"] = failed
	}
	return OutcomeOK, result, nil
}

// runDownloadProjects fetches every configured project source, with the same
// warn-and-continue failure policy as repos.
func (p *Pipeline) runDownloadProjects(ctx context.Context) (Outcome, map[string]any, error) {
	var fetched, failed []string
	for _, proj := range p.cfg.Projects {
		dest := ProjectDir(p.opts.WorkspaceRoot, proj.Src)

		if err := p.fetcher.CloneOrUpdate(ctx, proj.Src, dest); err != nil {
			p.logger.Warn("project fetch failed", "project", proj.Src, "error", err)
			failed = append(failed, proj.Src)
			continue
		}
		p.logger.Info("project ready", "project", proj.Src, "dir", dest)
		fetched = append(fetched, fetch.DirName(proj.Src))
	}

	result := map[string]any{"fetched": len(fetched)}
	if len(failed) > 0 {
		result["failed"] = failed
	}
	return OutcomeOK, result, nil
}
