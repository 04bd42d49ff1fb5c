// SPDX-License-Identifier: MPL-2.0

// Package fetch clones and updates the external repos and projects a
// workspace configuration declares. It shells out to git; the orchestrator
// trusts the local machine and the configuration author.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Fetcher runs git operations for one workspace.
type Fetcher struct {
	// Stdout and Stderr receive git output. When nil, output is discarded.
	Stdout io.Writer
	Stderr io.Writer
}

// DirName derives the checkout directory name from a git URL:
// "https://example.com/team/tools.git" -> "tools".
func DirName(url string) string {
	base := url
	if idx := strings.LastIndexAny(base, "/:"); idx != -1 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".git")
}

// CloneOrUpdate clones url into dest, or fast-forwards an existing checkout.
// An existing dest that is not a git checkout is left alone and reported as
// an error so user data is never clobbered.
func (f *Fetcher) CloneOrUpdate(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		if _, err := os.Stat(filepath.Join(dest, ".git")); err != nil {
			return fmt.Errorf("destination '%s' exists but is not a git checkout", dest)
		}
		return f.git(ctx, "", "-C", dest, "pull", "--ff-only")
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create checkout directory: %w", err)
	}
	return f.git(ctx, "", "clone", "--depth", "1", url, dest)
}

func (f *Fetcher) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdout = f.stdout()
	cmd.Stderr = f.stderr()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

func (f *Fetcher) stdout() io.Writer {
	if f.Stdout == nil {
		return io.Discard
	}
	return f.Stdout
}

func (f *Fetcher) stderr() io.Writer {
	if f.Stderr == nil {
		return io.Discard
	}
	return f.Stderr
}
