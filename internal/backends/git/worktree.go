package git

import (
	"context"
	"strings"
)

// WorkTreeState describes the checked-out state of the repository.
type WorkTreeState struct {
	HeadCommit string `json:"headCommit"`
	Branch     string `json:"branch"`
	Dirty      bool   `json:"dirty"`
	// Changes lists porcelain status lines of tracked files.
	Changes []string `json:"changes,omitempty"`
}

// WorkTree computes the current working tree state. Untracked files do not
// make the tree dirty: they survive a checkout.
func (s *Store) WorkTree(ctx context.Context) (*WorkTreeState, error) {
	head, err := s.runString(ctx, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}
	branch, err := s.runString(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	status, err := s.runString(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return nil, err
	}

	state := &WorkTreeState{HeadCommit: head, Branch: branch}
	if status != "" {
		state.Changes = strings.Split(status, "\n")
		state.Dirty = true
	}
	return state, nil
}

// localBranchCommit returns the commit of refs/heads/name, or "" when the
// branch does not exist locally.
func (s *Store) localBranchCommit(ctx context.Context, name string) string {
	id, err := s.runString(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name+"^{commit}")
	if err != nil {
		return ""
	}
	return id
}
