// Package revstore defines the Revision Store contract: listing file-level
// differences between two revisions, reading file content at a revision and
// computing line hunks for one difference.
package revstore

import (
	"context"
	"fmt"
)

// ChangeKind is the file-level change classification.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "ADD"
	ChangeModify ChangeKind = "MODIFY"
	ChangeDelete ChangeKind = "DELETE"
	ChangeRename ChangeKind = "RENAME"
)

// DiffEntry is one file-level difference. OldPath is empty for additions and
// NewPath is empty for deletions.
type DiffEntry struct {
	OldPath string     `json:"oldPath,omitempty"`
	NewPath string     `json:"newPath,omitempty"`
	Kind    ChangeKind `json:"changeKind"`
}

// Path returns the path the entry is known by in the newer revision, or the
// old path for deletions.
func (e DiffEntry) Path() string {
	if e.NewPath != "" {
		return e.NewPath
	}
	return e.OldPath
}

func (e DiffEntry) String() string {
	if e.Kind == ChangeRename {
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.OldPath, e.NewPath)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path())
}

// LineSpan is a 1-based line range on one side of a hunk. Count 0 means the
// hunk does not touch that side; Start is then the line after which the
// other side's lines are inserted.
type LineSpan struct {
	Start int
	Count int
}

// End returns the last line of the span, or Start-1 when it is empty.
func (s LineSpan) End() int {
	return s.Start + s.Count - 1
}

// Hunk is one zero-context edit.
type Hunk struct {
	Old LineSpan
	New LineSpan
}

// Revision is a named revision resolved to an immutable identifier.
type Revision struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func (r Revision) String() string {
	if r.ID == "" || r.ID == r.Name {
		return r.Name
	}
	short := r.ID
	if len(short) > 12 {
		short = short[:12]
	}
	return fmt.Sprintf("%s (%s)", r.Name, short)
}

// Store is safe for concurrent reads once revisions are resolved.
type Store interface {
	// ListFileDiffs lists file differences between two revisions.
	ListFileDiffs(ctx context.Context, oldRev, newRev Revision) ([]DiffEntry, error)

	// ReadFile returns the content of path at rev. A path absent at rev
	// fails with code FILE_NOT_FOUND.
	ReadFile(ctx context.Context, rev Revision, path string) ([]byte, error)

	// FileHunks returns the line hunks of one entry.
	FileHunks(ctx context.Context, oldRev, newRev Revision, entry DiffEntry) ([]Hunk, error)
}

// Syncer brings a local branch up to date with its remote counterpart.
// It mutates the working tree and must not run concurrently with reads.
type Syncer interface {
	SyncBranch(ctx context.Context, name string) error
}

// Resolver turns branch and tag names into revisions.
type Resolver interface {
	ResolveBranch(ctx context.Context, name string) (Revision, error)
	ResolveTag(ctx context.Context, name string) (Revision, error)
}
