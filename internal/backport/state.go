// Package backport implements the multi-branch backport state machine:
// sequencing of checkout, cherry-pick, push, pull-request creation and
// cleanup across target branches, with persisted resume and abort.
package backport

import (
	"context"
	"fmt"
	"strings"

	"backport.dev/backport/internal/git"
)

// Status is the phase of an in-progress backport operation.
type Status string

const (
	// StatusNoBackport means no operation is in flight (no persisted record).
	StatusNoBackport Status = "NO_BACKPORT"
	// StatusInProgress means checkout and cherry-pick were attempted but not resolved.
	StatusInProgress Status = "IN_PROGRESS"
	// StatusConflict means the cherry-pick stopped on unresolved conflicts.
	StatusConflict Status = "CONFLICT"
	// StatusReadyToPush means the commit is finalized locally and awaits push.
	StatusReadyToPush Status = "READY_TO_PUSH"
	// StatusReadyForPR means the branch is pushed; PR creation pending or done.
	StatusReadyForPR Status = "READY_FOR_PR"
)

// ParseStatus converts a persisted status tag back into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNoBackport, StatusInProgress, StatusConflict, StatusReadyToPush, StatusReadyForPR:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown backport status %q; it may have been written by a newer version", s)
}

// OperationState is the persisted record of an in-progress multi-branch
// backport. At most one exists per repository.
type OperationState struct {
	// CommitSHA is the commit being cherry-picked. Set once, immutable.
	CommitSHA string
	// RemainingBranches are the target branches not yet started, in order.
	RemainingBranches []string
	// CurrentBranch is the target branch currently being processed.
	CurrentBranch string
	// Status is the phase of the current branch.
	Status Status
	// WorkingBranch is the transient branch staging the cherry-pick.
	WorkingBranch string
	// PreviousBranch is the branch to return to during cleanup.
	PreviousBranch string
}

// StateStore persists the single OperationState of a repository. It is read
// at the start of every operation and written after every state transition,
// and must survive process restarts.
type StateStore interface {
	// Load returns the persisted state, or nil when no operation is in flight.
	Load(ctx context.Context) (*OperationState, error)
	// Save persists the state, replacing any previous record.
	Save(ctx context.Context, state *OperationState) error
	// Clear removes the record entirely.
	Clear(ctx context.Context) error
}

const (
	configSection = "backport"

	keyCommitSHA         = configSection + ".commit-sha"
	keyRemainingBranches = configSection + ".remaining-branches"
	keyCurrentBranch     = configSection + ".current-branch"
	keyStatus            = configSection + ".status"
	keyWorkingBranch     = configSection + ".working-branch"
	keyPreviousBranch    = configSection + ".previous-branch"
)

// branchListSeparator joins branch names in a single config value. A space
// can never appear in a ref name, so the join is unambiguous.
const branchListSeparator = " "

// GitConfigStore persists the operation state under the "backport" section
// of the repository-local git configuration.
type GitConfigStore struct{}

// NewGitConfigStore creates a store backed by `git config --local`.
func NewGitConfigStore() *GitConfigStore {
	return &GitConfigStore{}
}

// Load reads the persisted state, returning nil when none exists.
func (s *GitConfigStore) Load(ctx context.Context) (*OperationState, error) {
	sha, ok := s.get(ctx, keyCommitSHA)
	if !ok {
		return nil, nil
	}

	statusTag, _ := s.get(ctx, keyStatus)
	status, err := ParseStatus(statusTag)
	if err != nil {
		return nil, err
	}

	state := &OperationState{
		CommitSHA: sha,
		Status:    status,
	}
	if v, ok := s.get(ctx, keyRemainingBranches); ok && v != "" {
		state.RemainingBranches = strings.Split(v, branchListSeparator)
	}
	if v, ok := s.get(ctx, keyCurrentBranch); ok {
		state.CurrentBranch = v
	}
	if v, ok := s.get(ctx, keyWorkingBranch); ok {
		state.WorkingBranch = v
	}
	if v, ok := s.get(ctx, keyPreviousBranch); ok {
		state.PreviousBranch = v
	}
	return state, nil
}

// Save writes every attribute of the state to the local git config. The
// status key goes last: each Save is several git invocations, and a failure
// partway through must never leave a status that is ahead of the branch
// fields it describes.
func (s *GitConfigStore) Save(ctx context.Context, state *OperationState) error {
	entries := []struct {
		key   string
		value string
	}{
		{keyCommitSHA, state.CommitSHA},
		{keyRemainingBranches, strings.Join(state.RemainingBranches, branchListSeparator)},
		{keyCurrentBranch, state.CurrentBranch},
		{keyWorkingBranch, state.WorkingBranch},
		{keyPreviousBranch, state.PreviousBranch},
		{keyStatus, string(state.Status)},
	}
	for _, entry := range entries {
		key, value := entry.key, entry.value
		if value == "" {
			// git config rejects empty values cleanly only with --unset
			_, _ = git.RunGitCommandWithContext(ctx, "config", "--local", "--unset-all", key)
			continue
		}
		if _, err := git.RunGitCommandWithContext(ctx, "config", "--local", key, value); err != nil {
			return fmt.Errorf("failed to persist backport state: %w", err)
		}
	}
	return nil
}

// Clear removes the whole backport section from the local git config.
func (s *GitConfigStore) Clear(ctx context.Context) error {
	_, err := git.RunGitCommandWithContext(ctx, "config", "--local", "--remove-section", configSection)
	if err != nil {
		// Section may already be gone; only report genuine failures
		if state, loadErr := s.Load(ctx); loadErr == nil && state == nil {
			return nil
		}
		return fmt.Errorf("failed to clear backport state: %w", err)
	}
	return nil
}

func (s *GitConfigStore) get(ctx context.Context, key string) (string, bool) {
	out, err := git.RunGitCommandWithContext(ctx, "config", "--local", "--get", key)
	if err != nil {
		return "", false
	}
	return out, true
}

// MemoryStore is an in-memory StateStore for tests.
type MemoryStore struct {
	state *OperationState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored state, or nil when empty.
func (s *MemoryStore) Load(_ context.Context) (*OperationState, error) {
	if s.state == nil {
		return nil, nil
	}
	copied := *s.state
	copied.RemainingBranches = append([]string(nil), s.state.RemainingBranches...)
	return &copied, nil
}

// Save stores a copy of the state.
func (s *MemoryStore) Save(_ context.Context, state *OperationState) error {
	copied := *state
	copied.RemainingBranches = append([]string(nil), state.RemainingBranches...)
	s.state = &copied
	return nil
}

// Clear drops the stored state.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.state = nil
	return nil
}
