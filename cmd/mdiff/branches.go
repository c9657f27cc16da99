package main

import (
	"context"

	"github.com/spf13/cobra"

	"mdiff/internal/backends/git"
	"mdiff/internal/engine"
)

var branchesRepo string

var branchesCmd = &cobra.Command{
	Use:   "branches NEW_BRANCH OLD_BRANCH",
	Short: "Compare the tips of two branches",
	Long: `Compare the tips of two local branches. Unless --no-sync is given, the old
branch and then the new branch are first fast-forwarded to their remote
counterparts; this checks them out in the repository's working tree.

Examples:
  mdiff branches --repo ~/src/shop feature/cart main
  mdiff branches --no-sync --format json release-2 release-1`,
	Args: exactArgs(2),
	RunE: runBranches,
}

func init() {
	branchesCmd.Flags().StringVar(&branchesRepo, "repo", ".", "Path to the git repository")
	rootCmd.AddCommand(branchesCmd)
}

func runBranches(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, branchesRepo)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := git.Open(cmd.Context(), s.cfg, s.cfg.LoadCredentials(branchesRepo), s.logger)
	if err != nil {
		return err
	}
	s.cfg.RepoRoot = store.RepoRoot()

	newBranch, oldBranch := args[0], args[1]
	return s.compare(cmd, store, func(ctx context.Context, eng *engine.Engine) (*engine.Result, error) {
		return eng.CompareBranches(ctx, newBranch, oldBranch)
	})
}
