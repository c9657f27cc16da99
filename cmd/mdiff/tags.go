package main

import (
	"context"

	"github.com/spf13/cobra"

	"mdiff/internal/backends/git"
	"mdiff/internal/engine"
)

var (
	tagsRepo   string
	tagsBranch string
)

var tagsCmd = &cobra.Command{
	Use:   "tags --branch BRANCH NEW_TAG OLD_TAG",
	Short: "Compare two tags",
	Long: `Compare two tags. The branch carrying the tags is synchronized with the
remote first unless --no-sync is given. Arguments are validated before the
repository is touched: all of them must be non-empty and the tags must differ.

Examples:
  mdiff tags --repo ~/src/shop --branch main v2.1.0 v2.0.0
  mdiff tags --branch main --format yaml -o changes.yaml v2 v1`,
	Args: exactArgs(2),
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().StringVar(&tagsRepo, "repo", ".", "Path to the git repository")
	tagsCmd.Flags().StringVar(&tagsBranch, "branch", "", "Branch to synchronize before comparing (required)")
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	newTag, oldTag := args[0], args[1]
	if err := engine.ValidateTagArgs(tagsRepo, tagsBranch, newTag, oldTag); err != nil {
		return err
	}

	s, err := newSession(cmd, tagsRepo)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := git.Open(cmd.Context(), s.cfg, s.cfg.LoadCredentials(tagsRepo), s.logger)
	if err != nil {
		return err
	}
	s.cfg.RepoRoot = store.RepoRoot()

	return s.compare(cmd, store, func(ctx context.Context, eng *engine.Engine) (*engine.Result, error) {
		return eng.CompareTags(ctx, tagsBranch, newTag, oldTag)
	})
}
