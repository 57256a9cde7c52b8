package backport

import (
	"context"
	"fmt"

	"backport.dev/backport/internal/branches"
	"backport.dev/backport/internal/config"
	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/github"
	"backport.dev/backport/internal/output"
)

// Request is the immutable input of one backport invocation.
type Request struct {
	// CommitSHA identifies the commit to backport. Resolved to the full
	// hash before any state is persisted.
	CommitSHA string
	// Branches are the target maintenance branches, processed strictly in
	// the order given.
	Branches []string
}

// Options control how the machine drives the underlying tool.
type Options struct {
	// PRRemote is the remote pushed to and used for pull requests.
	PRRemote string
	// UpstreamRemote is the remote tracking the canonical repository.
	// Empty means auto-detect ("upstream", falling back to "origin").
	UpstreamRemote string
	// Push pushes each finished branch to PRRemote.
	Push bool
	// AutoPR attempts pull-request creation after each push.
	AutoPR bool
}

// Machine sequences checkout, cherry-pick, push, PR creation and cleanup
// across the target branches of one backport request. All progress is
// persisted through the injected StateStore so --continue and --abort work
// across process restarts.
type Machine struct {
	backend Backend
	store   StateStore
	prs     github.PRService
	cfg     *config.Config
	splog   *output.Splog
	opts    Options

	// cached resolved upstream remote name
	upstream string
}

// NewMachine creates a backport state machine. prs may be nil when AutoPR
// is disabled.
func NewMachine(backend Backend, store StateStore, prs github.PRService, cfg *config.Config, splog *output.Splog, opts Options) *Machine {
	return &Machine{
		backend: backend,
		store:   store,
		prs:     prs,
		cfg:     cfg,
		splog:   splog,
		opts:    opts,
	}
}

// Upstream returns the remote used for upstream branches, resolving it on
// first use.
func (m *Machine) Upstream(ctx context.Context) (string, error) {
	if m.upstream != "" {
		return m.upstream, nil
	}

	requested := m.opts.UpstreamRemote
	if requested != "" {
		if !m.backend.RemoteExists(ctx, requested) {
			return "", fmt.Errorf("there is no remote with name %q", requested)
		}
		m.upstream = requested
		return m.upstream, nil
	}
	if m.backend.RemoteExists(ctx, "upstream") {
		m.upstream = "upstream"
		return m.upstream, nil
	}
	if m.backend.RemoteExists(ctx, "origin") {
		m.upstream = "origin"
		return m.upstream, nil
	}
	return "", fmt.Errorf("there are no remotes with name 'upstream' or 'origin'")
}

// checkRepo verifies the configured identity commit exists before anything
// else runs, so an invocation from the wrong clone fails immediately instead
// of fetching and branching there.
func (m *Machine) checkRepo(ctx context.Context) error {
	sha := m.cfg.GetCheckSha()
	if sha == "" {
		return nil
	}
	if _, err := m.backend.ResolveSHA(ctx, sha); err != nil {
		return fmt.Errorf("commit %s from the backport configuration is not in this repository; running in the wrong clone?", sha)
	}
	return nil
}

// Start begins a new multi-branch backport. It fails before any mutating
// action when a persisted operation already exists or the request is
// invalid.
func (m *Machine) Start(ctx context.Context, req Request) error {
	if err := m.checkRepo(ctx); err != nil {
		return err
	}

	existing, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return backporterrors.NewConflictingOperationError(existing.CommitSHA)
	}

	if len(req.Branches) == 0 {
		return fmt.Errorf("at least one target branch must be specified")
	}
	seen := make(map[string]bool, len(req.Branches))
	for _, branch := range req.Branches {
		if seen[branch] {
			return backporterrors.NewInvalidBranchError(branch, "duplicate target branch")
		}
		seen[branch] = true

		descriptor := branches.Describe(branch, m.cfg.GetRequireVersionInBranchName())
		if !descriptor.Valid {
			return backporterrors.NewInvalidBranchError(branch, "no version found in branch name")
		}
	}

	sha, err := m.backend.ResolveSHA(ctx, req.CommitSHA)
	if err != nil {
		return err
	}

	upstream, err := m.Upstream(ctx)
	if err != nil {
		return err
	}
	if err := m.backend.FetchRemote(ctx, upstream); err != nil {
		return err
	}

	previousBranch, err := m.backend.CurrentBranch(ctx)
	if err != nil || previousBranch == "HEAD" {
		previousBranch = m.cfg.GetDefaultBranch()
	}

	state := &OperationState{
		CommitSHA:         sha,
		RemainingBranches: req.Branches,
		PreviousBranch:    previousBranch,
	}
	return m.processRemaining(ctx, state)
}

// processRemaining drives the per-branch sequence for every branch left in
// the state, in order, stopping on the first conflict. It is shared by
// Start and Continue so resumption re-enters the same loop.
func (m *Machine) processRemaining(ctx context.Context, state *OperationState) error {
	upstream, err := m.Upstream(ctx)
	if err != nil {
		return err
	}

	for len(state.RemainingBranches) > 0 {
		target := state.RemainingBranches[0]

		// Validated before the state record points at this branch so a
		// missing branch leaves no half-started phase behind.
		if !m.backend.RemoteBranchExists(ctx, upstream, target) {
			m.clearIfIdle(ctx, state)
			return backporterrors.NewInvalidBranchError(target,
				fmt.Sprintf("branch does not exist on remote %q", upstream))
		}

		state.RemainingBranches = state.RemainingBranches[1:]
		state.CurrentBranch = target
		state.WorkingBranch = WorkingBranchName(state.CommitSHA, target)
		state.Status = StatusInProgress
		if err := m.store.Save(ctx, state); err != nil {
			return err
		}

		m.splog.Info("Now backporting %s into %s", state.CommitSHA, target)

		if err := m.backend.CreateBranchFrom(ctx, state.WorkingBranch, upstream+"/"+target); err != nil {
			_ = m.backend.CheckoutBranch(ctx, state.PreviousBranch)
			_ = m.store.Clear(ctx)
			return fmt.Errorf("error checking out branch %s: %w", state.WorkingBranch, err)
		}
		// A bare `git push` on the working branch must never target upstream
		_ = m.backend.UnsetUpstream(ctx, state.WorkingBranch)

		result, err := m.backend.CherryPick(ctx, state.CommitSHA)
		switch result.Outcome {
		case git.CherryPickConflict:
			state.Status = StatusConflict
			if saveErr := m.store.Save(ctx, state); saveErr != nil {
				return saveErr
			}
			m.printConflictInstructions(target, result.ConflictPaths)
			return backporterrors.NewCherryPickConflictError(state.CommitSHA, target)
		case git.CherryPickFailed:
			// Unexpected tool failure aborts the whole batch; the record
			// still shows the last fully-recorded phase for inspection.
			if err == nil {
				err = result.Err
			}
			return fmt.Errorf("cherry-pick of %s into %s failed: %w", state.CommitSHA, target, err)
		}

		message, err := m.finalizeCommitMessage(ctx, state, false)
		if err != nil {
			return err
		}

		state.Status = StatusReadyToPush
		if err := m.store.Save(ctx, state); err != nil {
			return err
		}

		if !m.opts.Push {
			m.pauseAfterCommitting(state)
			return nil
		}

		if err := m.finishBranch(ctx, state, message); err != nil {
			return err
		}
	}

	return m.store.Clear(ctx)
}

// finalizeCommitMessage builds the backported commit message from the
// original commit and applies it: amending the cherry-picked commit, or
// committing staged resolution changes when a cherry-pick is still in
// flight.
func (m *Machine) finalizeCommitMessage(ctx context.Context, state *OperationState, commitAll bool) (string, error) {
	original, err := m.backend.CommitMessage(ctx, state.CommitSHA)
	if err != nil {
		return "", err
	}

	message := BuildMessage(original, MessageOptions{
		TargetBranch: state.CurrentBranch,
		Prefix:       true,
		FixCommitMsg: m.cfg.GetFixCommitMsg(),
	})
	message = AppendCherryPickTrailer(message, state.CommitSHA)
	if author, err := m.backend.CommitAuthor(ctx, state.CommitSHA); err == nil {
		message = AppendCoAuthoredBy(message, author)
	}

	if commitAll && m.backend.CherryPickInProgress(ctx) {
		if err := m.backend.CommitAll(ctx, message); err != nil {
			return "", err
		}
		return message, nil
	}
	if err := m.backend.AmendCommitMessage(ctx, message); err != nil {
		return "", err
	}
	return message, nil
}

// finishBranch pushes the working branch, attempts PR creation and cleans
// up. A PR failure after a successful push is reported as a warning; the
// branch stays READY_FOR_PR and the operator can create the PR manually.
func (m *Machine) finishBranch(ctx context.Context, state *OperationState, message string) error {
	if err := m.backend.PushBranch(ctx, m.opts.PRRemote, state.WorkingBranch, IsWorkingBranch(state.WorkingBranch)); err != nil {
		return err
	}

	state.Status = StatusReadyForPR
	if err := m.store.Save(ctx, state); err != nil {
		return err
	}

	m.createPullRequest(ctx, state, message)
	m.cleanupWorkingBranch(ctx, state)

	state.CurrentBranch = ""
	state.WorkingBranch = ""
	return nil
}

func (m *Machine) createPullRequest(ctx context.Context, state *OperationState, message string) {
	if !m.opts.AutoPR || m.prs == nil {
		return
	}

	title, body := SplitTitleBody(message)
	url, err := m.prs.CreatePullRequest(ctx, github.CreatePROptions{
		Title: title,
		Body:  body,
		Head:  state.WorkingBranch,
		Base:  state.CurrentBranch,
		Draft: m.cfg.GetDraftPr(),
	})
	if err != nil {
		prErr := backporterrors.NewPRCreationError(state.CurrentBranch, state.WorkingBranch, err)
		m.splog.Warn("%v", prErr)
		m.splog.Info("The branch is pushed; create the pull request manually with base %s and head %s.",
			state.CurrentBranch, state.WorkingBranch)
		return
	}
	if url != "" {
		m.splog.Info("Backport PR: %s", url)
	}
}

// cleanupWorkingBranch returns to the previous branch and removes the
// transient working branch. Failures are reported, not fatal.
func (m *Machine) cleanupWorkingBranch(ctx context.Context, state *OperationState) {
	if err := m.backend.CheckoutBranch(ctx, state.PreviousBranch); err != nil {
		m.splog.Error("branch %s NOT deleted: %v", state.WorkingBranch, err)
		return
	}
	if !IsWorkingBranch(state.WorkingBranch) {
		return
	}
	if err := m.backend.DeleteBranch(ctx, state.WorkingBranch); err != nil {
		m.splog.Error("branch %s NOT deleted: %v", state.WorkingBranch, err)
		return
	}
	m.splog.Info("branch %s has been deleted.", state.WorkingBranch)
}

// Continue resumes a stopped operation: after conflict resolution, after a
// --no-push pause, or after an interruption between push and PR creation.
func (m *Machine) Continue(ctx context.Context) error {
	if err := m.checkRepo(ctx); err != nil {
		return err
	}

	state, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		return backporterrors.ErrNoBackportInProgress
	}

	switch state.Status {
	case StatusConflict:
		paths, err := m.backend.UnmergedPaths(ctx)
		if err != nil {
			return err
		}
		if len(paths) > 0 {
			return backporterrors.NewUnresolvedConflictError(paths)
		}

		message, err := m.finalizeCommitMessage(ctx, state, true)
		if err != nil {
			return err
		}
		state.Status = StatusReadyToPush
		if err := m.store.Save(ctx, state); err != nil {
			return err
		}
		return m.continueFromReadyToPush(ctx, state, message)

	case StatusReadyToPush:
		message, err := m.backend.CommitMessage(ctx, "HEAD")
		if err != nil {
			return err
		}
		return m.continueFromReadyToPush(ctx, state, message)

	case StatusReadyForPR:
		// Interrupted between push and PR creation; the push is done.
		message, err := m.backend.CommitMessage(ctx, state.WorkingBranch)
		if err != nil {
			message = ""
		}
		m.createPullRequest(ctx, state, message)
		m.cleanupWorkingBranch(ctx, state)
		state.CurrentBranch = ""
		state.WorkingBranch = ""
		return m.processRemaining(ctx, state)

	default:
		return fmt.Errorf("cannot continue from status %s; resolve with 'backport --abort'", state.Status)
	}
}

func (m *Machine) continueFromReadyToPush(ctx context.Context, state *OperationState, message string) error {
	if !m.opts.Push {
		m.pauseAfterCommitting(state)
		return nil
	}
	if err := m.finishBranch(ctx, state, message); err != nil {
		return err
	}
	return m.processRemaining(ctx, state)
}

// Abort cancels the stopped operation: aborts any in-flight cherry-pick,
// deletes the working branch and clears all persisted state. Remaining
// branches are not resumed later.
func (m *Machine) Abort(ctx context.Context) error {
	if err := m.checkRepo(ctx); err != nil {
		return err
	}

	state, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		return backporterrors.ErrNoBackportInProgress
	}

	if state.Status != StatusConflict && state.Status != StatusInProgress {
		return fmt.Errorf("can only abort an operation stopped on a conflict (current status: %s); use 'backport --continue'", state.Status)
	}

	if m.backend.CherryPickInProgress(ctx) {
		if err := m.backend.CherryPickAbort(ctx); err != nil {
			return err
		}
	}

	m.cleanupWorkingBranch(ctx, state)
	return m.store.Clear(ctx)
}

// Report is the read-only view produced by Status.
type Report struct {
	Status            Status
	CommitSHA         string
	CurrentBranch     string
	WorkingBranch     string
	RemainingBranches []string
	ConflictPaths     []string
}

// Status inspects the persisted operation without mutating anything.
func (m *Machine) Status(ctx context.Context) (*Report, error) {
	if err := m.checkRepo(ctx); err != nil {
		return nil, err
	}

	state, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, backporterrors.ErrNoBackportInProgress
	}

	report := &Report{
		Status:            state.Status,
		CommitSHA:         state.CommitSHA,
		CurrentBranch:     state.CurrentBranch,
		WorkingBranch:     state.WorkingBranch,
		RemainingBranches: state.RemainingBranches,
	}
	if state.Status == StatusConflict {
		paths, err := m.backend.UnmergedPaths(ctx)
		if err == nil {
			report.ConflictPaths = paths
		}
	}
	return report, nil
}

// clearIfIdle drops the persisted record when no branch is mid-flight, so
// validation failures between branches leave no stale state behind.
func (m *Machine) clearIfIdle(ctx context.Context, state *OperationState) {
	if state.CurrentBranch == "" {
		_ = m.store.Clear(ctx)
	}
}

func (m *Machine) pauseAfterCommitting(state *OperationState) {
	m.splog.Info("Finished cherry-pick %s into %s", state.CommitSHA, state.WorkingBranch)
	m.splog.Info("--no-push option used; stopping here.")
	m.splog.Info("To push the changes and continue: %s", output.ColorCyan("backport --continue"))
	m.splog.Info("To abort the cherry-pick and clean up: %s", output.ColorCyan("backport --abort"))
}

func (m *Machine) printConflictInstructions(branchName string, conflictPaths []string) {
	m.splog.Info("%s", output.ColorRed(fmt.Sprintf("Failed to cherry-pick into %s; stopping here.", branchName)))
	if len(conflictPaths) > 0 {
		m.splog.Info("%s", output.ColorYellow("Unmerged paths:"))
		for _, path := range conflictPaths {
			m.splog.Info("  %s", output.ColorRed(path))
		}
	}
	m.splog.Newline()
	m.splog.Tip("Edit the conflicting files and stage them with 'git add' before continuing.")
	m.splog.Info("To continue after resolving the conflict:")
	m.splog.Info("  %s   # shows which files need attention", output.ColorCyan("backport --status"))
	m.splog.Info("  %s", output.ColorCyan("backport --continue"))
	m.splog.Info("To abort the cherry-pick and clean up:")
	m.splog.Info("  %s", output.ColorCyan("backport --abort"))
}
