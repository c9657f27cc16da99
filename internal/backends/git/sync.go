package git

import (
	"context"
	"strings"

	"mdiff/internal/errors"
)

// SyncBranch makes the local branch match the remote one. When the local tip
// already equals the remote head nothing happens; otherwise the branch is
// checked out (created with upstream tracking when missing) and
// fast-forwarded from the remote. The branch stays checked out afterwards.
func (s *Store) SyncBranch(ctx context.Context, name string) error {
	logger := s.logger.With("branch", name, "remote", s.remote)

	remoteHead, err := s.remoteBranchHead(ctx, name)
	if err != nil {
		return errors.New(errors.SyncFailed, "cannot query remote for "+name, err)
	}
	local := s.localBranchCommit(ctx, name)

	if remoteHead == "" {
		if local == "" {
			return errors.New(errors.SyncFailed, "branch "+name+" exists neither locally nor on "+s.remote, nil)
		}
		logger.Warn("Branch not found on remote, using local branch")
		return nil
	}
	if local == remoteHead {
		logger.Debug("Branch is up to date")
		return nil
	}

	state, err := s.WorkTree(ctx)
	if err != nil {
		return err
	}
	if state.Dirty {
		return errors.New(errors.SyncFailed, "working tree has uncommitted changes", nil).
			WithDetails(map[string]interface{}{"changes": state.Changes}).
			WithFixes(errors.FixAction{
				Type:        errors.RunCommand,
				Command:     "git stash",
				Safe:        true,
				Description: "Stash local changes before synchronizing branches",
			})
	}

	if local == "" {
		if _, err := s.runRemote(ctx, "fetch", s.remote, name); err != nil {
			return errors.New(errors.SyncFailed, "fetching "+name, err)
		}
		if _, err := s.run(ctx, "checkout", "-q", "--track", "-b", name, s.remote+"/"+name); err != nil {
			return errors.New(errors.SyncFailed, "creating tracking branch "+name, err)
		}
	} else if state.Branch != name {
		if _, err := s.run(ctx, "checkout", "-q", name); err != nil {
			return errors.New(errors.SyncFailed, "checking out "+name, err)
		}
	}

	if _, err := s.runRemote(ctx, "pull", "-q", "--ff-only", s.remote, name); err != nil {
		return errors.New(errors.SyncFailed, "pulling "+name, err).
			WithDetails(map[string]string{"stderr": detail(err)})
	}

	logger.Info("Branch synchronized", "from", shortID(local), "to", shortID(remoteHead))
	return nil
}

// remoteBranchHead returns the remote commit of the branch, or "" when the
// remote has no such branch.
func (s *Store) remoteBranchHead(ctx context.Context, name string) (string, error) {
	out, err := s.runRemote(ctx, "ls-remote", "--heads", s.remote, "refs/heads/"+name)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "refs/heads/"+name {
			return fields[0], nil
		}
	}
	return "", nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
