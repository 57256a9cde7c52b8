package github

import (
	"context"
	"fmt"

	"backport.dev/backport/internal/utils"
)

// BrowserService fulfills PRService without credentials by opening the
// GitHub compare page for the pushed branch in the default browser.
type BrowserService struct {
	// Owner and Repo identify the upstream repository.
	Owner string
	Repo  string
	// HeadOwner is the owner of the remote the branch was pushed to,
	// usually the user's fork.
	HeadOwner string
	// Open opens a URL; defaults to utils.OpenBrowser.
	Open func(url string) error
}

// NewBrowserService creates a BrowserService for the given repository.
func NewBrowserService(owner, repo, headOwner string) *BrowserService {
	return &BrowserService{
		Owner:     owner,
		Repo:      repo,
		HeadOwner: headOwner,
		Open:      utils.OpenBrowser,
	}
}

// CompareURL builds the pre-filled pull-request creation page URL.
func (s *BrowserService) CompareURL(base, head string) string {
	return fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s:%s?expand=1",
		s.Owner, s.Repo, base, s.HeadOwner, head)
}

// CreatePullRequest opens the compare page and returns its URL. The pull
// request itself is created by the user in the browser.
func (s *BrowserService) CreatePullRequest(_ context.Context, opts CreatePROptions) (string, error) {
	url := s.CompareURL(opts.Base, opts.Head)
	if err := s.Open(url); err != nil {
		return "", fmt.Errorf("failed to open browser for %s: %w", url, err)
	}
	return url, nil
}
