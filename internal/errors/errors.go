// Package errors provides sentinel errors and custom error types for the backport application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrConflictingOperation indicates that a backport is already in progress
	ErrConflictingOperation = errors.New("backport already in progress")

	// ErrNoBackportInProgress indicates that no backport operation is active
	ErrNoBackportInProgress = errors.New("no backport in progress")

	// ErrInvalidBranch indicates that a target branch is missing or fails validation
	ErrInvalidBranch = errors.New("invalid branch")

	// ErrUnresolvedConflict indicates that conflict markers are still present
	ErrUnresolvedConflict = errors.New("unresolved conflict")

	// ErrCherryPickConflict indicates that a cherry-pick stopped on a conflict
	ErrCherryPickConflict = errors.New("cherry-pick conflict")
)

// ConflictingOperationError is returned when a new backport is started while a
// persisted operation already exists for the repository.
type ConflictingOperationError struct {
	CommitSHA string
}

func (e *ConflictingOperationError) Error() string {
	return fmt.Sprintf(
		"a backport of %s is already in progress; run 'backport --continue', 'backport --abort' or 'backport --status' first",
		e.CommitSHA)
}

// Is returns true if the target error is ErrConflictingOperation
func (e *ConflictingOperationError) Is(target error) bool {
	return target == ErrConflictingOperation
}

// NewConflictingOperationError creates a new ConflictingOperationError
func NewConflictingOperationError(commitSHA string) *ConflictingOperationError {
	return &ConflictingOperationError{CommitSHA: commitSHA}
}

// InvalidBranchError is returned when a target branch does not exist on the
// upstream remote or fails the required-version-token policy.
type InvalidBranchError struct {
	BranchName string
	Reason     string
}

func (e *InvalidBranchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid branch %s: %s", e.BranchName, e.Reason)
	}
	return fmt.Sprintf("invalid branch %s", e.BranchName)
}

// Is returns true if the target error is ErrInvalidBranch
func (e *InvalidBranchError) Is(target error) bool {
	return target == ErrInvalidBranch
}

// NewInvalidBranchError creates a new InvalidBranchError
func NewInvalidBranchError(branchName, reason string) *InvalidBranchError {
	return &InvalidBranchError{BranchName: branchName, Reason: reason}
}

// UnresolvedConflictError is returned when continue is attempted while
// conflict markers remain in the working tree.
type UnresolvedConflictError struct {
	Paths []string
}

func (e *UnresolvedConflictError) Error() string {
	return fmt.Sprintf("conflicts are not fully resolved, unmerged paths: %s",
		strings.Join(e.Paths, ", "))
}

// Is returns true if the target error is ErrUnresolvedConflict
func (e *UnresolvedConflictError) Is(target error) bool {
	return target == ErrUnresolvedConflict
}

// NewUnresolvedConflictError creates a new UnresolvedConflictError
func NewUnresolvedConflictError(paths []string) *UnresolvedConflictError {
	return &UnresolvedConflictError{Paths: paths}
}

// CherryPickConflictError is returned when a cherry-pick stops on a conflict
// that requires manual resolution.
type CherryPickConflictError struct {
	CommitSHA  string
	BranchName string
}

func (e *CherryPickConflictError) Error() string {
	return fmt.Sprintf("failed to cherry-pick %s into %s", e.CommitSHA, e.BranchName)
}

// Is returns true if the target error is ErrCherryPickConflict
func (e *CherryPickConflictError) Is(target error) bool {
	return target == ErrCherryPickConflict
}

// NewCherryPickConflictError creates a new CherryPickConflictError
func NewCherryPickConflictError(commitSHA, branchName string) *CherryPickConflictError {
	return &CherryPickConflictError{CommitSHA: commitSHA, BranchName: branchName}
}

// PRCreationError represents a failure to create a pull request after a
// successful push. It is reported as a warning; the git-level work is done.
type PRCreationError struct {
	Base string
	Head string
	Err  error
}

func (e *PRCreationError) Error() string {
	return fmt.Sprintf("failed to create pull request %s -> %s: %v", e.Head, e.Base, e.Err)
}

func (e *PRCreationError) Unwrap() error {
	return e.Err
}

// NewPRCreationError creates a new PRCreationError
func NewPRCreationError(base, head string, err error) *PRCreationError {
	return &PRCreationError{Base: base, Head: head, Err: err}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
