package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mdiff/internal/config"
	"mdiff/internal/errors"
	"mdiff/internal/slogutil"
)

var (
	initRepo  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Creates .mdiff/config.json with the default settings in the repository.
An existing configuration is left alone unless --force is given.

Example:
  mdiff init --repo ~/src/shop`,
	Args: exactArgs(0),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initRepo, "repo", ".", "Directory to initialize")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := slogutil.NewLogger(cmd.ErrOrStderr(), slogutil.LevelFromVerbosity(verboseFlag, quietFlag))
	out := cmd.OutOrStdout()

	if info, err := os.Stat(initRepo); err != nil || !info.IsDir() {
		return errors.New(errors.RepositoryNotFound, initRepo+" is not a directory", err)
	}

	configPath := filepath.Join(initRepo, config.ConfigDir, "config.json")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		// already initialized is success
		fmt.Fprintln(out, "mdiff already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configPath)
		fmt.Fprintln(out, "\nRun 'mdiff init --force' to overwrite it.")
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = "."
	if err := cfg.Save(initRepo); err != nil {
		return errors.New(errors.InternalError, "failed to write "+configPath, err)
	}
	logger.Info("Wrote default configuration", "path", configPath)

	fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
	return nil
}
