// Package syncer runs the friendsync pipeline: clone the data repository,
// read the identifier list, fetch profiles and presence from OpenXBL, merge,
// and push the merged document back when its content changed.
package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/voxbl/friendsync/internal/config"
	"github.com/voxbl/friendsync/internal/document"
	"github.com/voxbl/friendsync/internal/github"
	"github.com/voxbl/friendsync/internal/merge"
)

// XblAPI is the OpenXBL surface the pipeline needs.
type XblAPI interface {
	Profiles(ctx context.Context, xuids []string) ([]*document.Document, error)
	Presence(ctx context.Context, xuids []string) ([]*document.Document, error)
}

// RepoClient is the git surface the pipeline needs.
type RepoClient interface {
	Clone(repo, token string) (workdir string, cleanup func(), err error)
	HasStagedChanges(workdir, file string) (bool, error)
	CommitAndPush(workdir, file, message string) error
}

// APICommitter commits the output file through the GitHub API (COMMIT_MODE=api).
type APICommitter interface {
	CommitFile(ctx context.Context, repo, path string, content []byte, message string) (string, error)
}

// Result summarizes one pipeline run.
type Result struct {
	Identifiers int  `json:"identifiers"`
	Profiles    int  `json:"profiles"`
	Matched     int  `json:"matched"`
	Pushed      bool `json:"pushed"`
}

// Runner executes the sync pipeline. Every step is sequential and every
// failure aborts the run.
type Runner struct {
	cfg  *config.Config
	api  XblAPI
	repo RepoClient
	auth github.AuthProvider

	// newAPICommitter is a seam for tests; nil means the real GitHub API.
	newAPICommitter func(token string) APICommitter
}

// New creates a pipeline runner.
func New(cfg *config.Config, api XblAPI, repo RepoClient, auth github.AuthProvider) *Runner {
	return &Runner{cfg: cfg, api: api, repo: repo, auth: auth}
}

// Run executes one full sync.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	token, err := r.auth.Token(ctx, r.cfg.RepoName)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	log.Printf("Cloning repository %s", r.cfg.RepoName)
	workdir, cleanup, err := r.repo.Clone(r.cfg.RepoName, token)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}
	defer cleanup()
	log.Printf("Repository cloned to %s", workdir)

	xuids, err := ReadXUIDs(filepath.Join(workdir, r.cfg.XUIDSFile))
	if err != nil {
		return nil, err
	}
	log.Printf("Read %d identifiers from %s", len(xuids), r.cfg.XUIDSFile)

	result := &Result{Identifiers: len(xuids)}

	// The API has no valid zero-identifier request; an empty list still
	// produces (and possibly commits) an empty array.
	profiles := []*document.Document{}
	presence := []*document.Document{}
	if len(xuids) > 0 {
		log.Printf("Fetching profiles for %d identifiers", len(xuids))
		profiles, err = r.api.Profiles(ctx, xuids)
		if err != nil {
			return nil, err
		}

		log.Printf("Fetching presence for %d identifiers", len(xuids))
		presence, err = r.api.Presence(ctx, xuids)
		if err != nil {
			return nil, err
		}
	}

	index := merge.BuildPresenceIndex(presence)
	merged := merge.Apply(profiles, index)

	result.Profiles = len(merged)
	for _, p := range merged {
		if xuid, ok := p.Key("xuid"); ok {
			if _, hit := index[xuid]; hit {
				result.Matched++
			}
		}
	}
	log.Printf("Merged %d profiles (%d with presence)", result.Profiles, result.Matched)

	output, err := document.EncodeList(merged)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(r.cfg.OutputFile, output, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", r.cfg.OutputFile, err)
	}

	target := filepath.Join(workdir, r.cfg.OutputFile)
	same, err := FileHasContent(target, output)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s: %w", target, err)
	}
	if same {
		log.Printf("%s unchanged, nothing to push", r.cfg.OutputFile)
		return result, nil
	}

	if err := os.WriteFile(target, output, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", target, err)
	}

	message := fmt.Sprintf("Update %s", r.cfg.OutputFile)

	if r.cfg.CommitMode == config.CommitModeAPI {
		newCommitter := r.newAPICommitter
		if newCommitter == nil {
			newCommitter = func(token string) APICommitter {
				return github.NewAPICommitter(token)
			}
		}
		sha, err := newCommitter(token).CommitFile(ctx, r.cfg.RepoName, r.cfg.OutputFile, output, message)
		if err != nil {
			return nil, fmt.Errorf("failed to commit via API: %w", err)
		}
		log.Printf("Committed %s via API (%s)", r.cfg.OutputFile, sha)
		result.Pushed = true
		return result, nil
	}

	hasChanges, err := r.repo.HasStagedChanges(workdir, r.cfg.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to detect changes: %w", err)
	}
	if !hasChanges {
		// Content differed byte-wise but git normalized it away. No empty commits.
		log.Printf("No staged changes for %s, nothing to push", r.cfg.OutputFile)
		return result, nil
	}

	log.Printf("Pushing %s to %s", r.cfg.OutputFile, r.cfg.RepoName)
	if err := r.repo.CommitAndPush(workdir, r.cfg.OutputFile, message); err != nil {
		return nil, fmt.Errorf("failed to commit/push: %w", err)
	}

	result.Pushed = true
	log.Printf("Sync completed, changes pushed")
	return result, nil
}
