package backport

import (
	"fmt"
	"regexp"
	"strings"
)

// workingBranchPrefix starts every transient branch created to stage a
// cherry-pick before pushing.
const workingBranchPrefix = "backport-"

// shortSHALength is the abbreviated commit hash length used in branch names.
const shortSHALength = 7

// WorkingBranchName derives the transient branch name for one target:
// the fixed prefix, the short commit hash, and the target branch name.
func WorkingBranchName(commitSHA, targetBranch string) string {
	short := commitSHA
	if len(short) > shortSHALength {
		short = short[:shortSHALength]
	}
	return workingBranchPrefix + short + "-" + targetBranch
}

// IsWorkingBranch reports whether a branch name was derived by
// WorkingBranchName. Cleanup only ever deletes such branches.
func IsWorkingBranch(branchName string) bool {
	return strings.HasPrefix(branchName, workingBranchPrefix)
}

// issueRefRegex matches standalone #<digits> issue references. The \B anchor
// rejects a "#" glued to a preceding word ("email#1234@x") and the trailing
// \b keeps the number separated from following word characters.
var issueRefRegex = regexp.MustCompile(`\B#([0-9]+)\b`)

// RewriteIssueReferences rewrites every standalone #<digits> token to
// GH-<digits>. The substitution is conservative so unrelated "#" usage is
// left alone.
func RewriteIssueReferences(message string) string {
	return issueRefRegex.ReplaceAllString(message, "GH-${1}")
}

// versionPrefixRegex matches a leading "[X.Y] " or "[X.Y.Z] " title prefix.
var versionPrefixRegex = regexp.MustCompile(`^\[\d+(?:\.\d+)+\] *`)

// StripVersionPrefixes removes any leading "[X.Y] " prefixes from a commit
// title, including stacked ones left by repeated backports.
func StripVersionPrefixes(title string) string {
	for {
		m := versionPrefixRegex.FindString(title)
		if m == "" {
			return title
		}
		title = title[len(m):]
	}
}

// MessageOptions control how a backported commit message is built.
type MessageOptions struct {
	// TargetBranch is the maintenance branch receiving the commit.
	TargetBranch string
	// Prefix prepends "[<TargetBranch>] " to the title.
	Prefix bool
	// FixCommitMsg rewrites #<digits> issue references to GH-<digits>.
	FixCommitMsg bool
}

// BuildMessage produces the commit message for the cherry-picked commit from
// the original message. Applied once, only to the backported commit.
func BuildMessage(original string, opts MessageOptions) string {
	message := strings.TrimSpace(original)
	if opts.FixCommitMsg {
		message = RewriteIssueReferences(message)
	}
	if opts.Prefix {
		title, body := SplitTitleBody(message)
		title = fmt.Sprintf("[%s] %s", opts.TargetBranch, StripVersionPrefixes(title))
		if body == "" {
			message = title
		} else {
			message = title + "\n\n" + body
		}
	}
	return message
}

// AppendCherryPickTrailer adds the "(cherry picked from commit <sha>)" line
// when it is not already present, e.g. when the commit is created manually
// after conflict resolution rather than by `cherry-pick -x`.
func AppendCherryPickTrailer(message, commitSHA string) string {
	trailer := fmt.Sprintf("(cherry picked from commit %s)", commitSHA)
	if strings.Contains(message, trailer) {
		return message
	}
	return strings.TrimSpace(message) + "\n\n" + trailer
}

// AppendCoAuthoredBy credits the original author with a "Co-authored-by:"
// trailer, directly under the cherry-pick line so the trailer block stays
// intact. Skipped when the trailer is already there.
func AppendCoAuthoredBy(message, author string) string {
	if author == "" {
		return message
	}
	trailer := "Co-authored-by: " + author
	if strings.Contains(message, trailer) {
		return message
	}
	return strings.TrimRight(message, "\n") + "\n" + trailer
}

// SplitTitleBody splits a commit message into its subject line and body.
func SplitTitleBody(message string) (string, string) {
	title, body, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(title), strings.TrimLeft(body, "\n")
}
