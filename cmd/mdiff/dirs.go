package main

import (
	"context"

	"github.com/spf13/cobra"

	"mdiff/internal/backends/snapshot"
	"mdiff/internal/engine"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs OLD_DIR NEW_DIR",
	Short: "Compare two directory trees",
	Long: `Compare two source trees on disk, for example two unpacked release
archives. Files are matched by relative path; hidden directories are ignored.
Configuration is read from the current directory.

Example:
  mdiff dirs build/release-1.0/src build/release-1.1/src`,
	Args: exactArgs(2),
	RunE: runDirs,
}

func init() {
	rootCmd.AddCommand(dirsCmd)
}

func runDirs(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, ".")
	if err != nil {
		return err
	}
	defer s.close()

	store, err := snapshot.Open(args[0], args[1], s.cfg.Diff, s.logger)
	if err != nil {
		return err
	}
	oldRev, newRev := store.Revisions()

	return s.compare(cmd, store, func(ctx context.Context, eng *engine.Engine) (*engine.Result, error) {
		return eng.Compare(ctx, oldRev, newRev)
	})
}
