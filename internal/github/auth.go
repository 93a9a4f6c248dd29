package github

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gogithub "github.com/google/go-github/v66/github"
)

// AuthProvider yields a token able to push to the data repository.
type AuthProvider interface {
	Token(ctx context.Context, repo string) (string, error)
}

// StaticTokenAuth wraps a pre-issued personal access token.
type StaticTokenAuth struct {
	AccessToken string
}

// Token returns the configured personal access token.
func (s *StaticTokenAuth) Token(ctx context.Context, repo string) (string, error) {
	if s.AccessToken == "" {
		return "", fmt.Errorf("no access token configured")
	}
	return s.AccessToken, nil
}

// AppAuth holds GitHub App authentication configuration. Each call mints a
// short-lived installation token for the target repository.
type AppAuth struct {
	AppID      string
	PrivateKey string

	// newClient is a seam for tests; nil means the real GitHub API.
	newClient func(jwtToken string) *gogithub.Client
}

// GenerateJWT creates a JWT token for GitHub App authentication
func (a *AppAuth) GenerateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	appID, err := strconv.ParseInt(a.AppID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

// Token mints an installation access token scoped to the repository.
func (a *AppAuth) Token(ctx context.Context, repo string) (string, error) {
	owner, name, err := SplitRepoName(repo)
	if err != nil {
		return "", err
	}

	jwtToken, err := a.GenerateJWT()
	if err != nil {
		return "", err
	}

	newClient := a.newClient
	if newClient == nil {
		newClient = func(jwtToken string) *gogithub.Client {
			return gogithub.NewClient(nil).WithAuthToken(jwtToken)
		}
	}
	client := newClient(jwtToken)

	installation, _, err := client.Apps.FindRepositoryInstallation(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to find installation for %s: %w", repo, err)
	}

	token, _, err := client.Apps.CreateInstallationToken(ctx, installation.GetID(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create installation token: %w", err)
	}

	return token.GetToken(), nil
}
