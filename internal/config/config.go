package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Commit modes for mirroring the output file back to the data repository.
const (
	CommitModeGit = "git" // local git commit + push from the clone
	CommitModeAPI = "api" // GitHub Git Data API commit
)

// Config holds all configuration for the friendsync service
type Config struct {
	// OpenXBL settings
	APIKey      string
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Data repository settings
	PAToken    string
	RepoName   string // "OWNER/REPO"
	XUIDSFile  string
	OutputFile string
	CommitMode string

	// GitHub App settings (alternative to PA_TOKEN)
	GitHubAppID      string
	GitHubPrivateKey string

	// Commit author identity for git-mode commits
	GitUserName  string
	GitUserEmail string

	// Server settings (-serve mode)
	Port int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:           os.Getenv("API_KEY"),
		APIBaseURL:       getEnv("XBL_API_URL", "https://xbl.io/api/v2"),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		PAToken:          os.Getenv("PA_TOKEN"),
		RepoName:         os.Getenv("PREPO_NAME"),
		XUIDSFile:        getEnv("XUIDS_FILE", "xuids.txt"),
		OutputFile:       getEnv("OUTPUT_FILE", "ApiData.json"),
		CommitMode:       getEnv("COMMIT_MODE", CommitModeGit),
		GitHubAppID:      os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey: os.Getenv("GITHUB_PRIVATE_KEY"),
		GitUserName:      getEnv("GIT_USER_NAME", "friendsync-bot"),
		GitUserEmail:     getEnv("GIT_USER_EMAIL", "friendsync@users.noreply.github.com"),
		Port:             getEnvInt("PORT", 8000),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present. It runs before
// any file or network activity.
func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.RepoName == "" {
		return fmt.Errorf("PREPO_NAME is required")
	}
	if c.PAToken == "" && !c.HasAppCredentials() {
		return fmt.Errorf("PA_TOKEN is required (or GITHUB_APP_ID and GITHUB_PRIVATE_KEY together)")
	}
	if c.CommitMode != CommitModeGit && c.CommitMode != CommitModeAPI {
		return fmt.Errorf("invalid COMMIT_MODE: %s (must be %q or %q)", c.CommitMode, CommitModeGit, CommitModeAPI)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.Port <= 0 {
		return fmt.Errorf("PORT must be greater than 0")
	}
	return nil
}

// HasAppCredentials reports whether GitHub App authentication is configured.
func (c *Config) HasAppCredentials() bool {
	return c.GitHubAppID != "" && c.GitHubPrivateKey != ""
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
