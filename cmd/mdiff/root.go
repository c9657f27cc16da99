package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mdiff/internal/config"
	"mdiff/internal/engine"
	"mdiff/internal/errors"
	"mdiff/internal/javaparse"
	"mdiff/internal/revstore"
	"mdiff/internal/slogutil"
	"mdiff/internal/version"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

var (
	formatFlag    string
	outputFlag    string
	verboseFlag   int
	quietFlag     bool
	chunkSizeFlag int
	workersFlag   int
	noSyncFlag    bool
	remoteFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "mdiff",
	Short: "mdiff - method-level change detection between revisions",
	Long: `mdiff reports which Java methods were added or structurally changed
between two revisions of a repository: two branches, two tags, or two
directory snapshots. Comments and layout do not count as changes.

Output is one record per touched class, listing its new or changed methods
together with the added and deleted line ranges of the file.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("mdiff version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&formatFlag, "format", string(FormatHuman), "Output format: json, human, yaml or toml")
	pf.StringVarP(&outputFlag, "output", "o", "", "Write results to this file instead of stdout")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress log output")
	pf.IntVar(&chunkSizeFlag, "chunk-size", 0, "Diff entries per work chunk (default from config)")
	pf.IntVar(&workersFlag, "workers", 0, "Worker goroutines (default from config, 0 = one per CPU)")
	pf.BoolVar(&noSyncFlag, "no-sync", false, "Do not synchronize branches with the remote before comparing")
	pf.StringVar(&remoteFlag, "remote", "", "Remote used for branch synchronization (default from config)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

// usageError marks command line mistakes; they exit with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func exitCode(err error) int {
	var ue usageError
	if goerrors.As(err, &ue) || errors.IsCode(err, errors.InvalidArgument) {
		return exitUsage
	}
	return exitFailure
}

// session carries the configuration and logger of one command invocation.
type session struct {
	cfg     *config.Config
	format  OutputFormat
	logger  *slog.Logger
	factory *slogutil.LoggerFactory
}

// newSession loads <repoRoot>/.mdiff/config.json, applies the global flags
// and builds the logger.
func newSession(cmd *cobra.Command, repoRoot string) (*session, error) {
	format, err := ParseFormat(formatFlag)
	if err != nil {
		return nil, usageError{err}
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, errors.New(errors.InvalidArgument, "failed to load config", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.InvalidArgument, err.Error(), err)
	}

	var cliLevel *slog.Level
	if quietFlag || verboseFlag > 0 {
		level := slogutil.LevelFromVerbosity(verboseFlag, quietFlag)
		cliLevel = &level
	}
	factory := slogutil.NewLoggerFactory(cfg.Logging, cliLevel)
	logger, err := factory.Logger(cmd.ErrOrStderr())
	if err != nil {
		logger.Warn("Failed to open log file", "file", cfg.Logging.File, "error", err.Error())
	}

	return &session{cfg: cfg, format: format, logger: logger, factory: factory}, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("chunk-size") {
		cfg.Diff.ChunkSize = chunkSizeFlag
	}
	if flags.Changed("workers") {
		cfg.Diff.Workers = workersFlag
	}
	if flags.Changed("remote") {
		cfg.Git.Remote = remoteFlag
	}
	if noSyncFlag {
		cfg.Git.Sync = false
	}
}

func (s *session) close() {
	_ = s.factory.Close()
}

// compare runs fn on an engine over store and writes the result.
func (s *session) compare(cmd *cobra.Command, store revstore.Store, fn func(context.Context, *engine.Engine) (*engine.Result, error)) error {
	if !javaparse.IsAvailable() {
		return errors.New(errors.InternalError, "mdiff was built without cgo; the Java parser is unavailable", nil)
	}

	eng := engine.New(store, javaparse.New(s.logger), s.cfg, s.logger)
	defer eng.Close()

	result, err := fn(cmd.Context(), eng)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), result, s.format)
}

func writeResult(stdout io.Writer, result *engine.Result, format OutputFormat) error {
	out, err := FormatResult(result, format)
	if err != nil {
		return err
	}
	if outputFlag == "" {
		_, err = fmt.Fprintln(stdout, out)
		return err
	}
	if err := os.WriteFile(outputFlag, []byte(out+"\n"), 0644); err != nil {
		return errors.New(errors.InternalError, "failed to write "+outputFlag, err)
	}
	return nil
}
