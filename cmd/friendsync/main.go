package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/voxbl/friendsync/internal/config"
	"github.com/voxbl/friendsync/internal/github"
	"github.com/voxbl/friendsync/internal/runstore"
	"github.com/voxbl/friendsync/internal/syncer"
	"github.com/voxbl/friendsync/internal/web"
	"github.com/voxbl/friendsync/internal/xbl"
)

var (
	loadDotEnv         = godotenv.Load
	loadConfig         = config.Load
	defaultListenServe = http.ListenAndServe
)

func main() {
	serveMode := flag.Bool("serve", false, "run as an HTTP service instead of a one-shot sync")
	flag.Parse()

	if err := run(context.Background(), *serveMode, defaultListenServe); err != nil {
		log.Fatalf("friendsync failed: %v", err)
	}
}

func run(ctx context.Context, serveMode bool, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting friendsync...")
	log.Printf("Data repository: %s", cfg.RepoName)
	log.Printf("Identifier file: %s, output file: %s", cfg.XUIDSFile, cfg.OutputFile)
	log.Printf("Commit mode: %s", cfg.CommitMode)

	var auth github.AuthProvider
	if cfg.PAToken != "" {
		auth = &github.StaticTokenAuth{AccessToken: cfg.PAToken}
	} else {
		log.Printf("Authenticating as GitHub App %s", cfg.GitHubAppID)
		auth = &github.AppAuth{
			AppID:      cfg.GitHubAppID,
			PrivateKey: cfg.GitHubPrivateKey,
		}
	}

	api := xbl.NewClient(cfg.APIKey, cfg.APIBaseURL, cfg.HTTPTimeout)
	repo := github.NewRepoClient(cfg.GitUserName, cfg.GitUserEmail)
	runner := syncer.New(cfg, api, repo, auth)

	if !serveMode {
		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		log.Printf("Done: %d profiles, %d with presence, pushed=%t",
			result.Profiles, result.Matched, result.Pushed)
		return nil
	}

	store := runstore.NewStore()
	handler := web.NewHandler(runner, store)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Trigger endpoint: http://localhost%s/sync", addr)
	log.Printf("Health check: http://localhost%s/health", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
