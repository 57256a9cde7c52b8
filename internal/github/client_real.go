package github

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"backport.dev/backport/internal/git"
)

// APIClient implements PRService using the GitHub REST API
type APIClient struct {
	client *github.Client
	owner  string
	repo   string
	// headOwner is the owner of the remote the branch was pushed to,
	// usually the user's fork. Head refs are qualified with it when it
	// differs from the upstream owner.
	headOwner string
}

// NewAPIClient creates an authenticated API client for the repository
// identified by owner/repo. Returns an error when no token is available;
// callers fall back to the browser service in that case.
func NewAPIClient(ctx context.Context, owner, repo, headOwner string) (*APIClient, error) {
	token, err := getGitHubToken()
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub token: %w", err)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &APIClient{
		client:    github.NewClient(tc),
		owner:     owner,
		repo:      repo,
		headOwner: headOwner,
	}, nil
}

// GetOwnerRepo returns the repository owner and name
func (c *APIClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// CreatePullRequest creates a new pull request and returns its URL
func (c *APIClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (string, error) {
	head := opts.Head
	if c.headOwner != "" && c.headOwner != c.owner {
		head = c.headOwner + ":" + opts.Head
	}

	pr := &github.NewPullRequest{
		Title:               github.String(opts.Title),
		Head:                github.String(head),
		Base:                github.String(opts.Base),
		Draft:               github.Bool(opts.Draft),
		MaintainerCanModify: github.Bool(true),
	}

	if opts.Body != "" {
		pr.Body = github.String(opts.Body)
	}

	createdPR, _, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, pr)
	if err != nil {
		return "", fmt.Errorf("failed to create pull request: %w", err)
	}

	if createdPR.HTMLURL == nil {
		return "", nil
	}
	return *createdPR.HTMLURL, nil
}

// getGitHubToken gets GitHub token from environment or gh CLI
func getGitHubToken() (string, error) {
	// Try environment variable first
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GH_AUTH"); token != "" {
		return token, nil
	}

	// Try gh CLI
	output, err := git.RunGHCommandWithContext(context.Background(), "auth", "token")
	if err != nil {
		return "", fmt.Errorf("failed to get GitHub token: %w", err)
	}

	token := strings.TrimSpace(output)
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}

	return token, nil
}
