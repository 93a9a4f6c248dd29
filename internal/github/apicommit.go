package github

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v66/github"
)

// APICommitter commits a single file through the GitHub Git Data API instead
// of a local git push. Commits made this way are attributed to the App when
// running with installation tokens.
type APICommitter struct {
	client *gogithub.Client
}

// NewAPICommitter creates a committer authenticated with the given token.
func NewAPICommitter(token string) *APICommitter {
	return &APICommitter{client: gogithub.NewClient(nil).WithAuthToken(token)}
}

// NewAPICommitterWithClient creates a committer with a custom client (useful
// for testing against httptest servers).
func NewAPICommitterWithClient(client *gogithub.Client) *APICommitter {
	return &APICommitter{client: client}
}

// CommitFile writes content to path on the repository's default branch as one
// commit: base ref → tree with the file → commit → ref update. Returns the
// new commit SHA.
func (c *APICommitter) CommitFile(ctx context.Context, repo, path string, content []byte, message string) (string, error) {
	owner, name, err := SplitRepoName(repo)
	if err != nil {
		return "", err
	}

	repoInfo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository info: %w", err)
	}
	branch := repoInfo.GetDefaultBranch()

	ref, _, err := c.client.Git.GetRef(ctx, owner, name, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("failed to get ref for branch %s: %w", branch, err)
	}
	parentSHA := ref.GetObject().GetSHA()

	parentCommit, _, err := c.client.Git.GetCommit(ctx, owner, name, parentSHA)
	if err != nil {
		return "", fmt.Errorf("failed to get base commit: %w", err)
	}

	tree, _, err := c.client.Git.CreateTree(ctx, owner, name, parentCommit.GetTree().GetSHA(), []*gogithub.TreeEntry{
		{
			Path:    gogithub.String(path),
			Mode:    gogithub.String("100644"),
			Type:    gogithub.String("blob"),
			Content: gogithub.String(string(content)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create tree: %w", err)
	}

	commit, _, err := c.client.Git.CreateCommit(ctx, owner, name, &gogithub.Commit{
		Message: gogithub.String(message),
		Tree:    tree,
		Parents: []*gogithub.Commit{{SHA: gogithub.String(parentSHA)}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}

	ref.Object.SHA = commit.SHA
	if _, _, err := c.client.Git.UpdateRef(ctx, owner, name, ref, false); err != nil {
		return "", fmt.Errorf("failed to update ref: %w", err)
	}

	return commit.GetSHA(), nil
}
