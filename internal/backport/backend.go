package backport

import (
	"context"
	"strings"

	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/output"
)

// Backend is the version-control capability the state machine drives. The
// real implementation shells out to git; tests substitute a scripted one.
type Backend interface {
	FetchRemote(ctx context.Context, remote string) error
	RemoteExists(ctx context.Context, remote string) bool
	RemoteBranchExists(ctx context.Context, remote, branchName string) bool
	RemoteURL(ctx context.Context, remote string) (string, error)

	CurrentBranch(ctx context.Context) (string, error)
	CheckoutBranch(ctx context.Context, branchName string) error
	CreateBranchFrom(ctx context.Context, branchName, startPoint string) error
	UnsetUpstream(ctx context.Context, branchName string) error
	DeleteBranch(ctx context.Context, branchName string) error

	CherryPick(ctx context.Context, commitSHA string) (git.CherryPickResult, error)
	CherryPickInProgress(ctx context.Context) bool
	CherryPickAbort(ctx context.Context) error
	UnmergedPaths(ctx context.Context) ([]string, error)

	ResolveSHA(ctx context.Context, revision string) (string, error)
	CommitMessage(ctx context.Context, revision string) (string, error)
	CommitAuthor(ctx context.Context, revision string) (string, error)
	AmendCommitMessage(ctx context.Context, message string) error
	CommitAll(ctx context.Context, message string) error

	PushBranch(ctx context.Context, remote, branchName string, forceWithLease bool) error
}

// gitBackend implements Backend by calling the git package. When dryRun is
// set, mutating operations are echoed instead of executed; reads run for
// real so derived values stay accurate.
type gitBackend struct {
	repo   *git.Repository
	splog  *output.Splog
	dryRun bool
}

// NewGitBackend returns the standard Backend implementation. repo may be nil;
// reads that prefer go-git then fall back to the subprocess runner.
func NewGitBackend(repo *git.Repository, splog *output.Splog, dryRun bool) Backend {
	return &gitBackend{repo: repo, splog: splog, dryRun: dryRun}
}

func (b *gitBackend) skip(args ...string) bool {
	if !b.dryRun {
		return false
	}
	b.splog.Info("  %s", output.ColorDim("dry-run: git "+strings.Join(args, " ")))
	return true
}

func (b *gitBackend) FetchRemote(ctx context.Context, remote string) error {
	if b.skip("fetch", remote, "--no-tags") {
		return nil
	}
	return git.FetchRemote(ctx, remote)
}

func (b *gitBackend) RemoteExists(ctx context.Context, remote string) bool {
	return git.RemoteExists(ctx, remote)
}

func (b *gitBackend) RemoteBranchExists(ctx context.Context, remote, branchName string) bool {
	return git.RemoteBranchExists(ctx, remote, branchName)
}

func (b *gitBackend) RemoteURL(ctx context.Context, remote string) (string, error) {
	return git.GetRemoteURL(ctx, remote)
}

func (b *gitBackend) CurrentBranch(ctx context.Context) (string, error) {
	if b.repo != nil {
		// go-git reads the ref without a subprocess; a detached HEAD errors
		// here and is answered by rev-parse below.
		if name, err := b.repo.CurrentBranch(); err == nil {
			return name, nil
		}
	}
	return git.GetCurrentBranch(ctx)
}

func (b *gitBackend) CheckoutBranch(ctx context.Context, branchName string) error {
	if b.skip("checkout", branchName) {
		return nil
	}
	return git.CheckoutBranch(ctx, branchName)
}

func (b *gitBackend) CreateBranchFrom(ctx context.Context, branchName, startPoint string) error {
	if b.skip("checkout", "-b", branchName, startPoint) {
		return nil
	}
	return git.CreateBranchFrom(ctx, branchName, startPoint)
}

func (b *gitBackend) UnsetUpstream(ctx context.Context, branchName string) error {
	if b.skip("branch", "--unset-upstream", branchName) {
		return nil
	}
	return git.UnsetUpstream(ctx, branchName)
}

func (b *gitBackend) DeleteBranch(ctx context.Context, branchName string) error {
	if b.skip("branch", "-D", branchName) {
		return nil
	}
	return git.DeleteBranch(ctx, branchName)
}

func (b *gitBackend) CherryPick(ctx context.Context, commitSHA string) (git.CherryPickResult, error) {
	if b.skip("cherry-pick", "-x", commitSHA) {
		return git.CherryPickResult{Outcome: git.CherryPickClean}, nil
	}
	return git.CherryPick(ctx, commitSHA)
}

func (b *gitBackend) CherryPickInProgress(ctx context.Context) bool {
	if b.dryRun {
		return false
	}
	return git.IsCherryPickInProgress(ctx)
}

func (b *gitBackend) CherryPickAbort(ctx context.Context) error {
	if b.skip("cherry-pick", "--abort") {
		return nil
	}
	return git.CherryPickAbort(ctx)
}

func (b *gitBackend) UnmergedPaths(ctx context.Context) ([]string, error) {
	if b.dryRun {
		return nil, nil
	}
	return git.GetUnmergedFiles(ctx)
}

func (b *gitBackend) ResolveSHA(ctx context.Context, revision string) (string, error) {
	return git.ResolveSHA(ctx, revision)
}

func (b *gitBackend) CommitMessage(ctx context.Context, revision string) (string, error) {
	return git.GetCommitMessage(ctx, revision)
}

func (b *gitBackend) CommitAuthor(ctx context.Context, revision string) (string, error) {
	return git.GetCommitAuthor(ctx, revision)
}

func (b *gitBackend) AmendCommitMessage(ctx context.Context, message string) error {
	if b.skip("commit", "--amend", "-m", "<message>") {
		return nil
	}
	return git.AmendCommitMessage(ctx, message)
}

func (b *gitBackend) CommitAll(ctx context.Context, message string) error {
	if b.skip("commit", "-a", "-m", "<message>", "--allow-empty") {
		return nil
	}
	return git.CommitAll(ctx, message)
}

func (b *gitBackend) PushBranch(ctx context.Context, remote, branchName string, forceWithLease bool) error {
	args := []string{"push"}
	if forceWithLease {
		args = append(args, "--force-with-lease")
	}
	if b.skip(append(args, remote, branchName)...) {
		return nil
	}
	return git.PushBranch(ctx, remote, branchName, forceWithLease)
}
