package manifest

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// git runs a git subcommand in dir and returns its trimmed output.
// Failures carry git's own message.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// gitClone clones a git repository to dest.
func gitClone(ctx context.Context, url, dest string) error {
	_, err := git(ctx, "", "clone", "--quiet", url, dest)
	return err
}

// gitCheckout checks out a specific ref (tag, branch, or commit) in a repo.
func gitCheckout(ctx context.Context, dir, ref string) error {
	_, err := git(ctx, dir, "checkout", "--quiet", ref)
	return err
}

// gitFetch fetches updates from the remote.
func gitFetch(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "fetch", "--quiet", "--all", "--tags")
	return err
}

// gitCurrentCommit returns the current HEAD commit hash.
func gitCurrentCommit(ctx context.Context, dir string) (string, error) {
	return git(ctx, dir, "rev-parse", "HEAD")
}
