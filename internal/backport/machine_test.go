package backport_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"backport.dev/backport/internal/backport"
	"backport.dev/backport/internal/config"
	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/github"
	"backport.dev/backport/internal/output"
)

const testSHA = "22a594a0047ea83a60d5a9c9e9b2e22b97364cbd"

const testAuthor = "Ada Lovelace <ada@example.com>"

func TestMain(m *testing.M) {
	output.SetColorEnabled(false)
	os.Exit(m.Run())
}

// fakeBackend is a scripted Backend that records every mutating call. It
// simulates conflicts per target branch so the full pause/resume cycle can
// be exercised without a real repository.
type fakeBackend struct {
	remotes        map[string]bool
	remoteBranches map[string]bool
	current        string
	conflictOn     map[string]bool
	unmerged       []string
	inCherryPick   bool
	messages       map[string]string
	deleteErr      error

	amended   []string
	committed []string
	pushed    []string
	deleted   []string
	fetched   []string
}

func newFakeBackend(targets ...string) *fakeBackend {
	b := &fakeBackend{
		remotes:        map[string]bool{"upstream": true, "origin": true},
		remoteBranches: map[string]bool{},
		current:        "main",
		conflictOn:     map[string]bool{},
		messages: map[string]string{
			testSHA: "Fix crash in parser\n\nCloses #1234",
			"HEAD":  "[3.12] Fix crash in parser\n\nCloses GH-1234",
		},
	}
	for _, target := range targets {
		b.remoteBranches["upstream/"+target] = true
	}
	return b
}

// targetOf recovers the target branch from a working branch name.
func (b *fakeBackend) targetOf(workingBranch string) string {
	rest := strings.TrimPrefix(workingBranch, "backport-")
	if idx := strings.Index(rest, "-"); idx >= 0 {
		return rest[idx+1:]
	}
	return rest
}

func (b *fakeBackend) FetchRemote(_ context.Context, remote string) error {
	b.fetched = append(b.fetched, remote)
	return nil
}

func (b *fakeBackend) RemoteExists(_ context.Context, remote string) bool {
	return b.remotes[remote]
}

func (b *fakeBackend) RemoteBranchExists(_ context.Context, remote, branchName string) bool {
	return b.remoteBranches[remote+"/"+branchName]
}

func (b *fakeBackend) RemoteURL(_ context.Context, _ string) (string, error) {
	return "git@github.com:python/cpython.git", nil
}

func (b *fakeBackend) CurrentBranch(_ context.Context) (string, error) {
	return b.current, nil
}

func (b *fakeBackend) CheckoutBranch(_ context.Context, branchName string) error {
	b.current = branchName
	return nil
}

func (b *fakeBackend) CreateBranchFrom(_ context.Context, branchName, _ string) error {
	b.current = branchName
	return nil
}

func (b *fakeBackend) UnsetUpstream(_ context.Context, _ string) error {
	return nil
}

func (b *fakeBackend) DeleteBranch(_ context.Context, branchName string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted = append(b.deleted, branchName)
	return nil
}

func (b *fakeBackend) CherryPick(_ context.Context, _ string) (git.CherryPickResult, error) {
	if b.conflictOn[b.targetOf(b.current)] {
		b.inCherryPick = true
		b.unmerged = []string{"parser.c"}
		return git.CherryPickResult{
			Outcome:       git.CherryPickConflict,
			ConflictPaths: b.unmerged,
		}, nil
	}
	return git.CherryPickResult{Outcome: git.CherryPickClean}, nil
}

func (b *fakeBackend) CherryPickInProgress(_ context.Context) bool {
	return b.inCherryPick
}

func (b *fakeBackend) CherryPickAbort(_ context.Context) error {
	b.inCherryPick = false
	b.unmerged = nil
	return nil
}

func (b *fakeBackend) UnmergedPaths(_ context.Context) ([]string, error) {
	return b.unmerged, nil
}

func (b *fakeBackend) ResolveSHA(_ context.Context, revision string) (string, error) {
	if strings.HasPrefix(testSHA, revision) {
		return testSHA, nil
	}
	return "", fmt.Errorf("unknown revision %s", revision)
}

func (b *fakeBackend) CommitMessage(_ context.Context, revision string) (string, error) {
	msg, ok := b.messages[revision]
	if !ok {
		return "", fmt.Errorf("no commit %s", revision)
	}
	return msg, nil
}

func (b *fakeBackend) CommitAuthor(_ context.Context, revision string) (string, error) {
	if _, ok := b.messages[revision]; !ok {
		return "", fmt.Errorf("no commit %s", revision)
	}
	return testAuthor, nil
}

func (b *fakeBackend) AmendCommitMessage(_ context.Context, message string) error {
	b.amended = append(b.amended, message)
	return nil
}

func (b *fakeBackend) CommitAll(_ context.Context, message string) error {
	b.committed = append(b.committed, message)
	b.inCherryPick = false
	return nil
}

func (b *fakeBackend) PushBranch(_ context.Context, remote, branchName string, _ bool) error {
	b.pushed = append(b.pushed, remote+"/"+branchName)
	return nil
}

// fakePRService records pull-request creations and can be scripted to fail.
type fakePRService struct {
	calls []github.CreatePROptions
	err   error
}

func (s *fakePRService) CreatePullRequest(_ context.Context, opts github.CreatePROptions) (string, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return "", s.err
	}
	return "https://github.com/python/cpython/pull/101", nil
}

func newTestMachine(backend backport.Backend, store backport.StateStore, prs github.PRService, opts backport.Options) (*backport.Machine, *bytes.Buffer) {
	return newTestMachineWithConfig(backend, store, prs, &config.Config{}, opts)
}

func newTestMachineWithConfig(backend backport.Backend, store backport.StateStore, prs github.PRService, cfg *config.Config, opts backport.Options) (*backport.Machine, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	splog := output.NewSplogWithWriter(buf)
	return backport.NewMachine(backend, store, prs, cfg, splog, opts), buf
}

func defaultOptions() backport.Options {
	return backport.Options{
		PRRemote: "origin",
		Push:     true,
		AutoPR:   true,
	}
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("clean run across two branches", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		store := backport.NewMemoryStore()
		prs := &fakePRService{}
		machine, _ := newTestMachine(backend, store, prs, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA[:10],
			Branches:  []string{"3.12", "3.11"},
		})
		require.NoError(t, err)

		// All state cleared after the last branch
		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)

		require.Equal(t, []string{"upstream"}, backend.fetched)
		require.Equal(t, []string{
			"origin/backport-22a594a-3.12",
			"origin/backport-22a594a-3.11",
		}, backend.pushed)
		require.Equal(t, []string{
			"backport-22a594a-3.12",
			"backport-22a594a-3.11",
		}, backend.deleted)
		require.Equal(t, "main", backend.current)

		require.Len(t, backend.amended, 2)
		require.True(t, strings.HasPrefix(backend.amended[0], "[3.12] Fix crash in parser"))
		require.Contains(t, backend.amended[0], "Closes GH-1234")
		require.Contains(t, backend.amended[0], "(cherry picked from commit "+testSHA+")\nCo-authored-by: "+testAuthor)
		require.True(t, strings.HasPrefix(backend.amended[1], "[3.11] Fix crash in parser"))

		require.Len(t, prs.calls, 2)
		require.Equal(t, "3.12", prs.calls[0].Base)
		require.Equal(t, "backport-22a594a-3.12", prs.calls[0].Head)
		require.Equal(t, "[3.12] Fix crash in parser", prs.calls[0].Title)
		require.Equal(t, "3.11", prs.calls[1].Base)
	})

	t.Run("conflict pauses with remaining branches persisted", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		backend.conflictOn["3.12"] = true
		store := backport.NewMemoryStore()
		machine, buf := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12", "3.11"},
		})
		require.ErrorIs(t, err, backporterrors.ErrCherryPickConflict)
		require.Contains(t, buf.String(), "stage them with 'git add'")

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, state)
		require.Equal(t, backport.StatusConflict, state.Status)
		require.Equal(t, testSHA, state.CommitSHA)
		require.Equal(t, "3.12", state.CurrentBranch)
		require.Equal(t, "backport-22a594a-3.12", state.WorkingBranch)
		require.Equal(t, []string{"3.11"}, state.RemainingBranches)
		require.Empty(t, backend.pushed)
	})

	t.Run("second start is rejected while one is in flight", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		store := backport.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), &backport.OperationState{
			CommitSHA: testSHA,
			Status:    backport.StatusConflict,
		}))
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12"},
		})
		require.ErrorIs(t, err, backporterrors.ErrConflictingOperation)

		var conflictErr *backporterrors.ConflictingOperationError
		require.ErrorAs(t, err, &conflictErr)
		require.Equal(t, testSHA, conflictErr.CommitSHA)
		require.Empty(t, backend.fetched)
	})

	t.Run("branch without version token is rejected", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("maintenance")
		store := backport.NewMemoryStore()
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"maintenance"},
		})
		require.ErrorIs(t, err, backporterrors.ErrInvalidBranch)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("duplicate target branches are rejected", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		machine, _ := newTestMachine(backend, backport.NewMemoryStore(), &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12", "3.12"},
		})
		require.ErrorIs(t, err, backporterrors.ErrInvalidBranch)
	})

	t.Run("branch missing on the upstream remote is rejected", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		store := backport.NewMemoryStore()
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.99"},
		})
		require.ErrorIs(t, err, backporterrors.ErrInvalidBranch)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("unknown commit is rejected before anything runs", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		machine, _ := newTestMachine(backend, backport.NewMemoryStore(), &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: "ffffffff",
			Branches:  []string{"3.12"},
		})
		require.Error(t, err)
		require.Empty(t, backend.fetched)
	})

	t.Run("no-push stops after committing", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		store := backport.NewMemoryStore()
		opts := defaultOptions()
		opts.Push = false
		machine, buf := newTestMachine(backend, store, &fakePRService{}, opts)

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12", "3.11"},
		})
		require.NoError(t, err)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, state)
		require.Equal(t, backport.StatusReadyToPush, state.Status)
		require.Equal(t, []string{"3.11"}, state.RemainingBranches)
		require.Empty(t, backend.pushed)
		require.Contains(t, buf.String(), "backport --continue")
	})

	t.Run("working branch delete failure is reported, not fatal", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		backend.deleteErr = fmt.Errorf("branch is checked out elsewhere")
		store := backport.NewMemoryStore()
		machine, buf := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12"},
		})
		require.NoError(t, err)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)
		require.Contains(t, buf.String(), "branch backport-22a594a-3.12 NOT deleted")
	})

	t.Run("pr failure after push is not fatal", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		store := backport.NewMemoryStore()
		prs := &fakePRService{err: fmt.Errorf("boom")}
		machine, buf := newTestMachine(backend, store, prs, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12"},
		})
		require.NoError(t, err)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)
		require.Len(t, backend.pushed, 1)
		require.Contains(t, buf.String(), "failed to create pull request")
	})
}

func TestContinue(t *testing.T) {
	t.Parallel()

	conflictState := func() *backport.OperationState {
		return &backport.OperationState{
			CommitSHA:         testSHA,
			RemainingBranches: []string{"3.11"},
			CurrentBranch:     "3.12",
			Status:            backport.StatusConflict,
			WorkingBranch:     "backport-22a594a-3.12",
			PreviousBranch:    "main",
		}
	}

	t.Run("without an operation in flight", func(t *testing.T) {
		t.Parallel()

		machine, _ := newTestMachine(newFakeBackend(), backport.NewMemoryStore(), &fakePRService{}, defaultOptions())
		err := machine.Continue(context.Background())
		require.ErrorIs(t, err, backporterrors.ErrNoBackportInProgress)
	})

	t.Run("unresolved conflict blocks continuation", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		backend.inCherryPick = true
		backend.unmerged = []string{"parser.c"}
		store := backport.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), conflictState()))
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Continue(context.Background())
		require.ErrorIs(t, err, backporterrors.ErrUnresolvedConflict)

		var unresolvedErr *backporterrors.UnresolvedConflictError
		require.ErrorAs(t, err, &unresolvedErr)
		require.Equal(t, []string{"parser.c"}, unresolvedErr.Paths)

		// State untouched so the operator can try again
		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, backport.StatusConflict, state.Status)
	})

	t.Run("resolved conflict commits and resumes remaining branches", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		backend.inCherryPick = true
		backend.unmerged = nil
		backend.current = "backport-22a594a-3.12"
		store := backport.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), conflictState()))
		prs := &fakePRService{}
		machine, _ := newTestMachine(backend, store, prs, defaultOptions())

		err := machine.Continue(context.Background())
		require.NoError(t, err)

		require.Len(t, backend.committed, 1)
		require.True(t, strings.HasPrefix(backend.committed[0], "[3.12] Fix crash in parser"))
		require.Contains(t, backend.committed[0], "(cherry picked from commit "+testSHA+")")
		require.Contains(t, backend.committed[0], "Co-authored-by: "+testAuthor)

		require.Equal(t, []string{
			"origin/backport-22a594a-3.12",
			"origin/backport-22a594a-3.11",
		}, backend.pushed)
		require.Len(t, prs.calls, 2)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("ready to push resumes from the push", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		backend.current = "backport-22a594a-3.12"
		store := backport.NewMemoryStore()
		state := conflictState()
		state.Status = backport.StatusReadyToPush
		require.NoError(t, store.Save(context.Background(), state))
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Continue(context.Background())
		require.NoError(t, err)

		require.Empty(t, backend.committed)
		require.Equal(t, []string{
			"origin/backport-22a594a-3.12",
			"origin/backport-22a594a-3.11",
		}, backend.pushed)

		loaded, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, loaded)
	})

	t.Run("in progress directs to abort", func(t *testing.T) {
		t.Parallel()

		store := backport.NewMemoryStore()
		state := conflictState()
		state.Status = backport.StatusInProgress
		require.NoError(t, store.Save(context.Background(), state))
		machine, _ := newTestMachine(newFakeBackend("3.12", "3.11"), store, &fakePRService{}, defaultOptions())

		err := machine.Continue(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "--abort")
	})
}

func TestAbort(t *testing.T) {
	t.Parallel()

	t.Run("aborts the cherry-pick and clears everything", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12", "3.11")
		backend.inCherryPick = true
		backend.current = "backport-22a594a-3.12"
		store := backport.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), &backport.OperationState{
			CommitSHA:         testSHA,
			RemainingBranches: []string{"3.11"},
			CurrentBranch:     "3.12",
			Status:            backport.StatusConflict,
			WorkingBranch:     "backport-22a594a-3.12",
			PreviousBranch:    "main",
		}))
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		err := machine.Abort(context.Background())
		require.NoError(t, err)

		require.False(t, backend.inCherryPick)
		require.Equal(t, "main", backend.current)
		require.Equal(t, []string{"backport-22a594a-3.12"}, backend.deleted)

		state, err := store.Load(context.Background())
		require.NoError(t, err)
		require.Nil(t, state)
	})

	t.Run("without an operation in flight", func(t *testing.T) {
		t.Parallel()

		machine, _ := newTestMachine(newFakeBackend(), backport.NewMemoryStore(), &fakePRService{}, defaultOptions())
		err := machine.Abort(context.Background())
		require.ErrorIs(t, err, backporterrors.ErrNoBackportInProgress)
	})

	t.Run("refuses to abort a pushed branch", func(t *testing.T) {
		t.Parallel()

		store := backport.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), &backport.OperationState{
			CommitSHA:     testSHA,
			CurrentBranch: "3.12",
			Status:        backport.StatusReadyForPR,
			WorkingBranch: "backport-22a594a-3.12",
		}))
		machine, _ := newTestMachine(newFakeBackend(), store, &fakePRService{}, defaultOptions())

		err := machine.Abort(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "--continue")
	})
}

func TestStatus(t *testing.T) {
	t.Parallel()

	t.Run("without an operation in flight", func(t *testing.T) {
		t.Parallel()

		machine, _ := newTestMachine(newFakeBackend(), backport.NewMemoryStore(), &fakePRService{}, defaultOptions())
		_, err := machine.Status(context.Background())
		require.ErrorIs(t, err, backporterrors.ErrNoBackportInProgress)
	})

	t.Run("reports conflict details without mutating state", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		backend.unmerged = []string{"parser.c", "lexer.c"}
		store := backport.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), &backport.OperationState{
			CommitSHA:         testSHA,
			RemainingBranches: []string{"3.11"},
			CurrentBranch:     "3.12",
			Status:            backport.StatusConflict,
			WorkingBranch:     "backport-22a594a-3.12",
		}))
		machine, _ := newTestMachine(backend, store, &fakePRService{}, defaultOptions())

		first, err := machine.Status(context.Background())
		require.NoError(t, err)
		require.Equal(t, backport.StatusConflict, first.Status)
		require.Equal(t, testSHA, first.CommitSHA)
		require.Equal(t, "3.12", first.CurrentBranch)
		require.Equal(t, []string{"3.11"}, first.RemainingBranches)
		require.Equal(t, []string{"parser.c", "lexer.c"}, first.ConflictPaths)

		// Idempotent: a second call sees the identical report
		second, err := machine.Status(context.Background())
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestRepositoryCheck(t *testing.T) {
	t.Parallel()

	configWithCheckSha := func(sha string) *config.Config {
		return &config.Config{CheckSha: &sha}
	}

	t.Run("start refuses to run in the wrong clone", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		store := backport.NewMemoryStore()
		cfg := configWithCheckSha("ffffffffffffffffffffffffffffffffffffffff")
		machine, _ := newTestMachineWithConfig(backend, store, &fakePRService{}, cfg, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12"},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "wrong clone")
		require.Empty(t, backend.fetched)
	})

	t.Run("status refuses to run in the wrong clone", func(t *testing.T) {
		t.Parallel()

		cfg := configWithCheckSha("ffffffffffffffffffffffffffffffffffffffff")
		machine, _ := newTestMachineWithConfig(newFakeBackend("3.12"), backport.NewMemoryStore(), &fakePRService{}, cfg, defaultOptions())

		_, err := machine.Status(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "wrong clone")
	})

	t.Run("known commit passes the check", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		store := backport.NewMemoryStore()
		cfg := configWithCheckSha(testSHA)
		machine, _ := newTestMachineWithConfig(backend, store, &fakePRService{}, cfg, defaultOptions())

		err := machine.Start(context.Background(), backport.Request{
			CommitSHA: testSHA,
			Branches:  []string{"3.12"},
		})
		require.NoError(t, err)
	})
}

func TestUpstreamResolution(t *testing.T) {
	t.Parallel()

	t.Run("prefers upstream over origin", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		machine, _ := newTestMachine(backend, backport.NewMemoryStore(), &fakePRService{}, defaultOptions())

		remote, err := machine.Upstream(context.Background())
		require.NoError(t, err)
		require.Equal(t, "upstream", remote)
	})

	t.Run("falls back to origin", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		delete(backend.remotes, "upstream")
		machine, _ := newTestMachine(backend, backport.NewMemoryStore(), &fakePRService{}, defaultOptions())

		remote, err := machine.Upstream(context.Background())
		require.NoError(t, err)
		require.Equal(t, "origin", remote)
	})

	t.Run("requested remote must exist", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		opts := defaultOptions()
		opts.UpstreamRemote = "fork"
		machine, _ := newTestMachine(backend, backport.NewMemoryStore(), &fakePRService{}, opts)

		_, err := machine.Upstream(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "fork")
	})

	t.Run("no usable remotes", func(t *testing.T) {
		t.Parallel()

		backend := newFakeBackend("3.12")
		backend.remotes = map[string]bool{}
		machine, _ := newTestMachine(backend, backport.NewMemoryStore(), &fakePRService{}, defaultOptions())

		_, err := machine.Upstream(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "no remotes")
	})
}
