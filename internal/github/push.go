package github

import (
	"fmt"
	"strings"
)

// HasStagedChanges reports whether the given file differs from HEAD after
// staging. An untracked or modified output file shows up in the porcelain
// status; a byte-identical one does not.
func (c *RepoClient) HasStagedChanges(workdir, file string) (bool, error) {
	output, err := c.runner.RunInDir(workdir, "git", "status", "--porcelain", "--", file)
	if err != nil {
		return false, fmt.Errorf("git status failed: %w\nOutput: %s", err, string(output))
	}

	return len(strings.TrimSpace(string(output))) > 0, nil
}

// CommitAndPush stages the file, commits, and pushes to the remote default
// branch. Callers must check HasStagedChanges first; committing with nothing
// staged is an error, not a no-op.
func (c *RepoClient) CommitAndPush(workdir, file, message string) error {
	commands := [][]string{
		{"git", "config", "user.name", c.gitUserName},
		{"git", "config", "user.email", c.gitUserEmail},
		{"git", "add", "--", file},
		{"git", "commit", "-m", message},
		{"git", "push", "origin", "HEAD"},
	}

	for _, args := range commands {
		if output, err := c.runner.RunInDir(workdir, args[0], args[1:]...); err != nil {
			return fmt.Errorf("%s failed: %w\nOutput: %s", strings.Join(args, " "), err, string(output))
		}
	}

	return nil
}
