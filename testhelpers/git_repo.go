// Package testhelpers provides real-git fixtures for integration-style tests.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRepo is a real git repository created in a test temp directory. Tests
// use it to build maintenance-branch layouts and verify cherry-pick flows
// against actual git behavior.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new repository with a "main" default branch and a
// configured test identity.
func NewGitRepo(dir string) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	// Use -c flags and a neutral global config so host configuration never
	// leaks into test behavior
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	if err := repo.Git("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.Git("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// Git runs a git command in the repository directory.
func (r *GitRepo) Git(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if os.Getenv("DEBUG") == "" {
		cmd.Stdout = nil
		cmd.Stderr = nil
	}
	return cmd.Run()
}

// GitOutput runs a git command and returns its trimmed output.
func (r *GitRepo) GitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// WriteFile writes a file relative to the repository root.
func (r *GitRepo) WriteFile(name, contents string) error {
	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, []byte(contents), 0600)
}

// ReadFile reads a file relative to the repository root.
func (r *GitRepo) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Commit writes the file and commits it with the given message.
func (r *GitRepo) Commit(fileName, contents, message string) (string, error) {
	if err := r.WriteFile(fileName, contents); err != nil {
		return "", err
	}
	if err := r.Git("add", "."); err != nil {
		return "", err
	}
	if err := r.Git("commit", "-m", message); err != nil {
		return "", fmt.Errorf("commit failed: %w", err)
	}
	return r.HeadSHA()
}

// CreateBranch creates a branch at the current HEAD without checking it out.
func (r *GitRepo) CreateBranch(name string) error {
	return r.Git("branch", name)
}

// CheckoutBranch checks out an existing branch.
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.Git("checkout", name)
}

// CreateAndCheckoutBranch creates and checks out a new branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.Git("checkout", "-b", name)
}

// CurrentBranch returns the checked-out branch name.
func (r *GitRepo) CurrentBranch() (string, error) {
	return r.GitOutput("branch", "--show-current")
}

// HeadSHA returns the full hash of HEAD.
func (r *GitRepo) HeadSHA() (string, error) {
	return r.GitOutput("rev-parse", "HEAD")
}

// CommitMessage returns the full commit message of a revision.
func (r *GitRepo) CommitMessage(rev string) (string, error) {
	return r.GitOutput("show", "-s", "--format=%B", rev)
}

// LocalBranches returns all local branch names.
func (r *GitRepo) LocalBranches() ([]string, error) {
	out, err := r.GitOutput("branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// CherryPickInProgress reports whether CHERRY_PICK_HEAD exists.
func (r *GitRepo) CherryPickInProgress() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git", "CHERRY_PICK_HEAD"))
	return err == nil
}

// CreateBareRemote creates a sibling bare repository and registers it as a
// remote, so push and fetch run against a real remote without a network.
func (r *GitRepo) CreateBareRemote(name string) (string, error) {
	bareDir := r.Dir + "-" + name + ".git"

	cmd := exec.Command("git", "init", "--bare", bareDir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to create bare repo: %w", err)
	}

	if err := r.Git("remote", "add", name, bareDir); err != nil {
		return "", fmt.Errorf("failed to add remote: %w", err)
	}
	return bareDir, nil
}

// PushBranch pushes a branch to a remote.
func (r *GitRepo) PushBranch(remote, branch string) error {
	return r.Git("push", remote, branch)
}

// SetupMaintenanceRepo builds the standard backport layout: a main branch
// with an initial commit, the given maintenance branches forked from it, and
// an "upstream" bare remote holding all of them. Returns the repository.
func SetupMaintenanceRepo(dir string, maintenanceBranches ...string) (*GitRepo, error) {
	repo, err := NewGitRepo(dir)
	if err != nil {
		return nil, err
	}
	if _, err := repo.Commit("readme.txt", "initial\n", "Initial commit"); err != nil {
		return nil, err
	}

	for _, branch := range maintenanceBranches {
		if err := repo.CreateBranch(branch); err != nil {
			return nil, fmt.Errorf("failed to create branch %s: %w", branch, err)
		}
	}

	if _, err := repo.CreateBareRemote("upstream"); err != nil {
		return nil, err
	}
	if err := repo.PushBranch("upstream", "main"); err != nil {
		return nil, err
	}
	for _, branch := range maintenanceBranches {
		if err := repo.PushBranch("upstream", branch); err != nil {
			return nil, err
		}
	}
	return repo, nil
}
