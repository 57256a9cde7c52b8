// Package cli wires the command-line surface to the backport machinery.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"backport.dev/backport/internal/backport"
	"backport.dev/backport/internal/branches"
	"backport.dev/backport/internal/config"
	backporterrors "backport.dev/backport/internal/errors"
	"backport.dev/backport/internal/git"
	"backport.dev/backport/internal/github"
	"backport.dev/backport/internal/output"
)

type rootOptions struct {
	dryRun         bool
	prRemote       string
	upstreamRemote string
	abortOp        bool
	continueOp     bool
	statusOp       bool
	push           bool
	noPush         bool
	autoPR         bool
	noAutoPR       bool
	configPath     string
	sortBranches   bool
	force          bool
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "backport [flags] COMMIT_SHA BRANCH [BRANCH...]",
		Short: "Backport a commit into maintenance branches",
		Long: `Backport cherry-picks a single commit into one or more maintenance
branches, pushes each resulting branch and opens a pull request for it.

When a cherry-pick stops on a conflict the operation pauses; resolve the
conflict, stage the files, and run 'backport --continue'. Run
'backport --abort' to cancel and clean up, or 'backport --status' to see
where things stand.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print mutating git commands instead of running them")
	flags.StringVar(&opts.prRemote, "pr-remote", "origin", "Remote to push working branches to")
	flags.StringVar(&opts.upstreamRemote, "upstream-remote", "", "Remote tracking the canonical repository (default: upstream, else origin)")
	flags.BoolVar(&opts.abortOp, "abort", false, "Abort the in-progress backport and clean up")
	flags.BoolVar(&opts.continueOp, "continue", false, "Resume the in-progress backport")
	flags.BoolVar(&opts.statusOp, "status", false, "Show the state of the in-progress backport")
	flags.BoolVar(&opts.push, "push", true, "Push each finished branch to the pr-remote")
	flags.BoolVar(&opts.noPush, "no-push", false, "Do not push; stop after committing each branch")
	flags.BoolVar(&opts.autoPR, "auto-pr", true, "Create a pull request after each push")
	flags.BoolVar(&opts.noAutoPR, "no-auto-pr", false, "Do not create pull requests")
	flags.StringVar(&opts.configPath, "config-path", "", "Path to the configuration file (default: .backport.json at the repo root)")
	flags.BoolVar(&opts.sortBranches, "sort", false, "Process target branches newest version first instead of the supplied order")
	flags.BoolVar(&opts.force, "force", false, "Do not prompt for confirmation on --abort")

	return rootCmd
}

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	modes := 0
	for _, set := range []bool{opts.abortOp, opts.continueOp, opts.statusOp} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--abort, --continue and --status are mutually exclusive")
	}
	if modes == 1 && len(args) > 0 {
		return fmt.Errorf("--abort, --continue and --status take no arguments")
	}
	if modes == 0 && len(args) < 2 {
		return fmt.Errorf("usage: backport [flags] COMMIT_SHA BRANCH [BRANCH...]")
	}

	repo, err := git.OpenRepository(".")
	if err != nil {
		return fmt.Errorf("not a git repository: %w", err)
	}
	repoRoot, err := git.GetRepoRoot()
	if err != nil {
		return fmt.Errorf("failed to get repo root: %w", err)
	}
	git.SetWorkingDir(repoRoot)

	cfg, err := loadConfig(repoRoot, opts.configPath)
	if err != nil {
		return err
	}

	splog, err := output.NewSplogWithConfig(output.GetLogFilePath())
	if err != nil {
		splog = output.NewSplog()
	}
	defer func() { _ = splog.Close() }()

	push := opts.push && !opts.noPush
	autoPR := opts.autoPR && !opts.noAutoPR && push && !opts.dryRun

	// Only the start and continue paths can create pull requests; abort and
	// status never need remote or token lookups.
	var prs github.PRService
	if autoPR && !opts.abortOp && !opts.statusOp {
		prs = buildPRService(cmd, opts, cfg, splog)
	}

	ctx := cmd.Context()
	backend := backport.NewGitBackend(repo, splog, opts.dryRun)
	machine := backport.NewMachine(
		backend,
		backport.NewGitConfigStore(),
		prs,
		cfg,
		splog,
		backport.Options{
			PRRemote:       opts.prRemote,
			UpstreamRemote: opts.upstreamRemote,
			Push:           push,
			AutoPR:         autoPR,
		},
	)

	switch {
	case opts.abortOp:
		return runAbort(cmd, machine, splog, opts.force)
	case opts.continueOp:
		return machine.Continue(ctx)
	case opts.statusOp:
		return runStatus(cmd, machine, splog)
	default:
		targets := args[1:]
		if opts.sortBranches {
			targets = branches.SortByVersion(targets)
		}
		return machine.Start(ctx, backport.Request{
			CommitSHA: args[0],
			Branches:  targets,
		})
	}
}

func loadConfig(repoRoot, configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.GetConfigFromPath(configPath)
	}
	return config.GetConfig(repoRoot)
}

// buildPRService picks the pull-request strategy: the GitHub API when a
// token is available, the browser compare page otherwise. Returns nil when
// the repository identity cannot be determined; PR creation is then
// skipped with a warning at finish time.
func buildPRService(cmd *cobra.Command, opts *rootOptions, cfg *config.Config, splog *output.Splog) github.PRService {
	ctx := cmd.Context()

	owner := cfg.GetTeam()
	repo := cfg.GetRepo()
	if owner == "" || repo == "" {
		upstream, err := git.DetermineUpstreamRemote(ctx, opts.upstreamRemote)
		if err != nil {
			return nil
		}
		url, err := git.GetRemoteURL(ctx, upstream)
		if err != nil {
			return nil
		}
		parsedOwner, parsedRepo, err := git.ParseOwnerRepoFromRemoteURL(url)
		if err != nil {
			splog.Debug("could not parse owner/repo from %s: %v", url, err)
			return nil
		}
		if owner == "" {
			owner = parsedOwner
		}
		if repo == "" {
			repo = parsedRepo
		}
	}

	headOwner := owner
	if prURL, err := git.GetRemoteURL(ctx, opts.prRemote); err == nil {
		if parsed, err := git.ParseOwnerFromRemoteURL(prURL); err == nil {
			headOwner = parsed
		}
	}

	if client, err := github.NewAPIClient(ctx, owner, repo, headOwner); err == nil {
		apiOwner, apiRepo := client.GetOwnerRepo()
		splog.Debug("pull requests will target %s/%s", apiOwner, apiRepo)
		return client
	}
	splog.Debug("no GitHub token available, falling back to browser-based PR creation")
	return github.NewBrowserService(owner, repo, headOwner)
}

func runAbort(cmd *cobra.Command, machine *backport.Machine, splog *output.Splog, force bool) error {
	if !force && output.CanPrompt() {
		confirmed, err := output.Confirm("Abort the in-progress backport and delete the working branch?")
		if err != nil {
			return err
		}
		if !confirmed {
			splog.Info("Abort cancelled.")
			return nil
		}
	}
	if err := machine.Abort(cmd.Context()); err != nil {
		return err
	}
	splog.Info("Backport aborted.")
	return nil
}

func runStatus(cmd *cobra.Command, machine *backport.Machine, splog *output.Splog) error {
	report, err := machine.Status(cmd.Context())
	if err != nil {
		if errors.Is(err, backporterrors.ErrNoBackportInProgress) {
			splog.Info("No backport in progress.")
			return nil
		}
		return err
	}

	splog.Info("Backport of %s", output.ColorCyan(report.CommitSHA))
	splog.Info("Status: %s", statusColor(report.Status))
	if report.CurrentBranch != "" {
		splog.Info("Target branch: %s", report.CurrentBranch)
	}
	if report.WorkingBranch != "" {
		splog.Info("Working branch: %s", report.WorkingBranch)
	}
	if len(report.RemainingBranches) > 0 {
		splog.Info("Remaining branches: %s", strings.Join(report.RemainingBranches, ", "))
	}

	if report.Status == backport.StatusConflict && len(report.ConflictPaths) > 0 {
		splog.Newline()
		splog.Info("%s", output.ColorYellow("Unmerged paths:"))
		for _, path := range report.ConflictPaths {
			splog.Info("  %s", output.ColorRed(path))
		}
		return backporterrors.NewUnresolvedConflictError(report.ConflictPaths)
	}
	return nil
}

func statusColor(status backport.Status) string {
	switch status {
	case backport.StatusConflict:
		return output.ColorRed(string(status))
	case backport.StatusReadyToPush, backport.StatusReadyForPR:
		return output.ColorGreen(string(status))
	default:
		return output.ColorYellow(string(status))
	}
}
