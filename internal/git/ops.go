package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CherryPickOutcome classifies the result of a cherry-pick invocation
type CherryPickOutcome int

const (
	// CherryPickClean indicates the cherry-pick applied without conflicts
	CherryPickClean CherryPickOutcome = iota
	// CherryPickConflict indicates the cherry-pick stopped on unresolved conflicts
	CherryPickConflict
	// CherryPickFailed indicates the cherry-pick failed for another reason
	CherryPickFailed
)

// CherryPickResult is the result of a cherry-pick operation. A conflict is
// only reported when the failed invocation left a cherry-pick in progress
// with unmerged paths; exit code alone is not enough since other errors
// share it.
type CherryPickResult struct {
	Outcome       CherryPickOutcome
	ConflictPaths []string
	Err           error
}

// CherryPick runs `git cherry-pick -x <sha>` and classifies the result.
func CherryPick(ctx context.Context, commitSHA string) (CherryPickResult, error) {
	_, err := RunGitCommandWithContext(ctx, "cherry-pick", "-x", commitSHA)
	if err == nil {
		return CherryPickResult{Outcome: CherryPickClean}, nil
	}

	if IsCherryPickInProgress(ctx) {
		paths, pathErr := GetUnmergedFiles(ctx)
		if pathErr == nil && len(paths) > 0 {
			return CherryPickResult{Outcome: CherryPickConflict, ConflictPaths: paths}, nil
		}
	}

	return CherryPickResult{Outcome: CherryPickFailed, Err: err}, err
}

// IsCherryPickInProgress checks whether a cherry-pick is currently in flight
// by probing for CHERRY_PICK_HEAD in the git directory.
func IsCherryPickInProgress(ctx context.Context) bool {
	gitDir, err := GitDir(ctx)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(gitDir, "CHERRY_PICK_HEAD"))
	return err == nil
}

// CherryPickAbort aborts an in-progress cherry-pick.
func CherryPickAbort(ctx context.Context) error {
	_, err := RunGitCommandWithContext(ctx, "cherry-pick", "--abort")
	return err
}

// GetUnmergedFiles returns the paths that still carry conflict markers.
func GetUnmergedFiles(ctx context.Context) ([]string, error) {
	lines, err := RunGitCommandLinesWithContext(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// FetchRemote fetches a remote without tags.
func FetchRemote(ctx context.Context, remote string) error {
	_, err := RunGitCommandWithContext(ctx, "fetch", remote, "--no-tags")
	return err
}

// RemoteBranchExists reports whether remote/branch resolves to a commit.
// The remote must have been fetched first.
func RemoteBranchExists(ctx context.Context, remote, branchName string) bool {
	_, err := RunGitCommandWithContext(ctx, "rev-parse", "--verify", "--quiet",
		fmt.Sprintf("refs/remotes/%s/%s", remote, branchName))
	return err == nil
}

// RemoteExists reports whether the named remote is configured.
func RemoteExists(ctx context.Context, remote string) bool {
	_, err := RunGitCommandWithContext(ctx, "remote", "get-url", remote)
	return err == nil
}

// GetRemoteURL returns the URL of the named remote.
func GetRemoteURL(ctx context.Context, remote string) (string, error) {
	return RunGitCommandWithContext(ctx, "config", "--get", fmt.Sprintf("remote.%s.url", remote))
}

// CheckoutBranch checks out an existing branch.
func CheckoutBranch(ctx context.Context, branchName string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", branchName)
	return err
}

// CreateBranchFrom creates and checks out a branch starting at startPoint.
func CreateBranchFrom(ctx context.Context, branchName, startPoint string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", "-b", branchName, startPoint)
	return err
}

// UnsetUpstream removes the upstream tracking configuration of a branch so
// a bare `git push` cannot accidentally target the upstream remote.
func UnsetUpstream(ctx context.Context, branchName string) error {
	_, err := RunGitCommandWithContext(ctx, "branch", "--unset-upstream", branchName)
	return err
}

// DeleteBranch force-deletes a local branch.
func DeleteBranch(ctx context.Context, branchName string) error {
	_, err := RunGitCommandWithContext(ctx, "branch", "-D", branchName)
	return err
}

// PushBranch pushes a branch to a remote. forceWithLease overwrites a stale
// remote branch while refusing to clobber changes pushed by someone else.
func PushBranch(ctx context.Context, remote, branchName string, forceWithLease bool) error {
	args := []string{"push"}
	if forceWithLease {
		args = append(args, "--force-with-lease")
	}
	args = append(args, remote, fmt.Sprintf("%s:%s", branchName, branchName))

	_, err := RunGitCommandWithContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to push branch %s to %s: %w", branchName, remote, err)
	}
	return nil
}

// ResolveSHA resolves a revision to its full commit hash.
func ResolveSHA(ctx context.Context, revision string) (string, error) {
	sha, err := RunGitCommandWithContext(ctx, "rev-parse", "--verify", revision+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("%s is not a commit in this repository: %w", revision, err)
	}
	return sha, nil
}

// GetCommitMessage returns the full commit message of a revision.
func GetCommitMessage(ctx context.Context, revision string) (string, error) {
	msg, err := RunGitCommandWithContext(ctx, "show", "-s", "--format=%B", revision)
	if err != nil {
		return "", fmt.Errorf("failed to get commit message for %s: %w", revision, err)
	}
	return msg, nil
}

// GetCommitAuthor returns the author of a revision as "Name <email>".
func GetCommitAuthor(ctx context.Context, revision string) (string, error) {
	author, err := RunGitCommandWithContext(ctx, "show", "-s", "--format=%aN <%aE>", revision)
	if err != nil {
		return "", fmt.Errorf("failed to get commit author for %s: %w", revision, err)
	}
	return author, nil
}

// AmendCommitMessage rewrites the message of the commit at HEAD.
func AmendCommitMessage(ctx context.Context, message string) error {
	_, err := RunGitCommandWithContext(ctx, "commit", "--amend", "-m", message)
	return err
}

// CommitAll commits all tracked changes with the given message. Used to
// finalize a cherry-pick after conflict resolution; --allow-empty covers
// resolutions that end up dropping every change.
func CommitAll(ctx context.Context, message string) error {
	_, err := RunGitCommandWithContext(ctx, "commit", "-a", "-m", message, "--allow-empty")
	return err
}

// GetCurrentBranch returns the current branch name via the subprocess runner.
// HEAD detached states return the literal "HEAD".
func GetCurrentBranch(ctx context.Context) (string, error) {
	return RunGitCommandWithContext(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// DetermineUpstreamRemote picks the remote tracking the canonical repository.
// An explicitly requested remote must exist. Otherwise "upstream" is used
// when configured, falling back to "origin".
func DetermineUpstreamRemote(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		if !RemoteExists(ctx, requested) {
			return "", fmt.Errorf("there is no remote with name %q", requested)
		}
		return requested, nil
	}
	if RemoteExists(ctx, "upstream") {
		return "upstream", nil
	}
	if RemoteExists(ctx, "origin") {
		return "origin", nil
	}
	return "", fmt.Errorf("there are no remotes with name 'upstream' or 'origin'")
}

// ParseOwnerFromRemoteURL extracts the owner/user segment from a remote URL.
// Handles both https and ssh formats:
//
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
func ParseOwnerFromRemoteURL(url string) (string, error) {
	normalized := strings.TrimSuffix(strings.TrimRight(strings.ReplaceAll(url, ":", "/"), "/"), ".git")
	parts := strings.Split(normalized, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("cannot determine owner from remote URL %q", url)
	}
	return parts[len(parts)-2], nil
}

// ParseOwnerRepoFromRemoteURL extracts owner and repository name from a remote URL.
func ParseOwnerRepoFromRemoteURL(url string) (string, string, error) {
	normalized := strings.TrimSuffix(strings.TrimRight(strings.ReplaceAll(url, ":", "/"), "/"), ".git")
	parts := strings.Split(normalized, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot determine owner/repo from remote URL %q", url)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
