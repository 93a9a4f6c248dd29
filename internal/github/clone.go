package github

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nowFunc = time.Now

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

func sanitizeSegment(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// SplitRepoName splits an "OWNER/REPO" identifier.
func SplitRepoName(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q: expected OWNER/REPO", repo)
	}
	return parts[0], parts[1], nil
}

func buildCloneWorkdir(repo string, ts time.Time) string {
	ownerSegment := "unknown"
	repoSegment := "repo"

	if parts := strings.Split(repo, "/"); len(parts) == 2 {
		ownerSegment = sanitizeSegment(parts[0])
		repoSegment = sanitizeSegment(parts[1])
	} else {
		ownerSegment = sanitizeSegment(repo)
	}

	dirName := fmt.Sprintf("friendsync-%s-%s-%d", ownerSegment, repoSegment, ts.UnixNano())
	return filepath.Join(os.TempDir(), dirName)
}

func cloneURL(repo, token string) string {
	return fmt.Sprintf("https://x-access-token:%s@github.com/%s.git", token, repo)
}

// redactToken scrubs the access token from text destined for errors or logs.
func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "***")
}

// RepoClient performs git operations against the data repository.
type RepoClient struct {
	runner       CommandRunner
	gitUserName  string
	gitUserEmail string
}

// NewRepoClient creates a repo client backed by the real git binary.
func NewRepoClient(gitUserName, gitUserEmail string) *RepoClient {
	return &RepoClient{
		runner:       &RealCommandRunner{},
		gitUserName:  gitUserName,
		gitUserEmail: gitUserEmail,
	}
}

// NewRepoClientWithRunner creates a repo client with a custom command runner
// (useful for testing).
func NewRepoClientWithRunner(runner CommandRunner, gitUserName, gitUserEmail string) *RepoClient {
	return &RepoClient{
		runner:       runner,
		gitUserName:  gitUserName,
		gitUserEmail: gitUserEmail,
	}
}

// Clone makes a fresh shallow clone of the repository's default branch into a
// unique temporary directory. The token authenticates the clone and remains
// embedded in the origin URL so later pushes reuse it.
// Returns: workdir path, cleanup function, error.
func (c *RepoClient) Clone(repo, token string) (string, func(), error) {
	tmpDir := buildCloneWorkdir(repo, nowFunc())

	args := []string{"clone", "--depth=1", "--single-branch", cloneURL(repo, token), tmpDir}
	if output, err := c.runner.RunInDir("", "git", args...); err != nil {
		return "", nil, fmt.Errorf("git clone of %s failed: %w\nOutput: %s",
			repo, err, redactToken(string(output), token))
	}

	cleanup := func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			fmt.Printf("Warning: failed to cleanup %s: %v\n", tmpDir, err)
		}
	}

	return tmpDir, cleanup, nil
}
