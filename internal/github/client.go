// Package github provides pull-request creation for backport branches.
package github

import (
	"context"
)

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	// Head is the branch holding the backported commit. It is qualified
	// with the fork owner ("owner:branch") when pushing to a fork.
	Head string
	// Base is the maintenance branch the pull request targets.
	Base  string
	Draft bool
}

// PRService creates a pull request after a successful push and returns its
// URL. Implementations may call the GitHub API or fall back to opening the
// compare page in a browser; both fulfill the contract.
type PRService interface {
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (string, error)
}
