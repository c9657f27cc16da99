// Package git implements the revision store on top of the git binary. All
// reads address immutable object ids; only SyncBranch touches the working
// tree.
package git

import (
	"bytes"
	"context"
	goerrors "errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"mdiff/internal/config"
	"mdiff/internal/errors"
)

// credentialHelper answers git's credential requests from environment
// variables that are set on the child process only.
const credentialHelper = `!f() { test "$1" = get || return 0; echo "username=${` + config.EnvUsername + `}"; echo "password=${` + config.EnvPassword + `}"; }; f`

// Store is a revision store backed by a local git repository.
type Store struct {
	repoRoot         string
	remote           string
	timeout          time.Duration
	remoteTimeout    time.Duration
	ignoreWhitespace bool
	detectRenames    bool
	creds            config.Credentials
	logger           *slog.Logger
}

// Open verifies that cfg.RepoRoot is a git repository and returns a store
// rooted at its top level.
func Open(ctx context.Context, cfg *config.Config, creds config.Credentials, logger *slog.Logger) (*Store, error) {
	if _, err := os.Stat(cfg.RepoRoot); err != nil {
		return nil, errors.New(errors.RepositoryNotFound, "repository path does not exist", err).
			WithDetails(map[string]string{"repoRoot": cfg.RepoRoot})
	}
	if _, err := exec.LookPath("git"); err != nil {
		return nil, errors.New(errors.GitUnavailable, "git executable not found", err)
	}

	s := &Store{
		repoRoot:         cfg.RepoRoot,
		remote:           cfg.Git.Remote,
		timeout:          time.Duration(cfg.Git.TimeoutMs) * time.Millisecond,
		remoteTimeout:    time.Duration(cfg.Git.RemoteTimeoutMs) * time.Millisecond,
		ignoreWhitespace: cfg.Diff.IgnoreWhitespace,
		detectRenames:    cfg.Diff.DetectRenames,
		creds:            creds,
		logger:           logger,
	}

	top, err := s.runString(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, errors.New(errors.RepositoryNotFound, "not a git work tree", err).
			WithDetails(map[string]string{"repoRoot": cfg.RepoRoot}).
			WithFixes(errors.FixAction{
				Type:        errors.RunCommand,
				Command:     "git -C " + cfg.RepoRoot + " status",
				Safe:        true,
				Description: "Check that the path is inside a git repository",
			})
	}
	s.repoRoot = top

	logger.Info("Git store opened",
		"repoRoot", s.repoRoot,
		"remote", s.remote,
		"timeout", s.timeout.String(),
		"credentials", !creds.IsZero(),
	)
	return s, nil
}

// RepoRoot returns the repository top level.
func (s *Store) RepoRoot() string {
	return s.repoRoot
}

// run executes a local git command bounded by git.timeoutMs.
func (s *Store) run(ctx context.Context, args ...string) ([]byte, error) {
	return s.execute(ctx, s.timeout, nil, args)
}

// runRemote executes a command that talks to the remote, bounded by
// git.remoteTimeoutMs and carrying the credential when one is configured.
func (s *Store) runRemote(ctx context.Context, args ...string) ([]byte, error) {
	env := append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if !s.creds.IsZero() {
		args = append([]string{"-c", "credential.helper=", "-c", "credential.helper=" + credentialHelper}, args...)
		env = append(env,
			config.EnvUsername+"="+s.creds.Username,
			config.EnvPassword+"="+s.creds.Password,
		)
	}
	return s.execute(ctx, s.remoteTimeout, env, args)
}

func (s *Store) runString(ctx context.Context, args ...string) (string, error) {
	out, err := s.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (s *Store) execute(ctx context.Context, timeout time.Duration, env []string, args []string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoRoot
	cmd.Env = env
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Debug("Executing git command", "args", args, "timeout", timeout.String())

	out, err := cmd.Output()
	if err != nil {
		return nil, commandError(ctx, args, stderr.String(), err)
	}
	return out, nil
}

func commandError(ctx context.Context, args []string, stderr string, err error) error {
	if goerrors.Is(err, exec.ErrNotFound) {
		return errors.New(errors.GitUnavailable, "git executable not found", err)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return errors.New(errors.Timeout, "git command timed out", err).
			WithDetails(map[string]interface{}{"args": args})
	}

	var exitErr *exec.ExitError
	if goerrors.As(err, &exitErr) {
		return errors.New(errors.InternalError, "git command failed", err).
			WithDetails(map[string]interface{}{
				"args":   args,
				"stderr": strings.TrimSpace(stderr),
			})
	}
	return errors.New(errors.InternalError, "failed to execute git command", err)
}

// detail returns the stderr captured in a command error, if any.
func detail(err error) string {
	var e *errors.Error
	if goerrors.As(err, &e) {
		if m, ok := e.Details.(map[string]interface{}); ok {
			if s, ok := m["stderr"].(string); ok {
				return s
			}
		}
	}
	return ""
}
