package git

import (
	"bytes"
	"context"
	"slices"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"mdiff/internal/errors"
	"mdiff/internal/revstore"
)

// ResolveBranch resolves a local branch to its commit.
func (s *Store) ResolveBranch(ctx context.Context, name string) (revstore.Revision, error) {
	return s.resolve(ctx, name, "refs/heads/"+name+"^{commit}")
}

// ResolveTag resolves a tag (or any revision expression) to its commit.
func (s *Store) ResolveTag(ctx context.Context, name string) (revstore.Revision, error) {
	return s.resolve(ctx, name, name+"^{commit}")
}

func (s *Store) resolve(ctx context.Context, name, expr string) (revstore.Revision, error) {
	id, err := s.runString(ctx, "rev-parse", "--verify", "--quiet", expr)
	if err != nil || id == "" {
		if errors.IsCode(err, errors.Timeout) || errors.IsCode(err, errors.GitUnavailable) {
			return revstore.Revision{}, err
		}
		return revstore.Revision{}, errors.New(errors.RevisionNotFound, "cannot resolve "+name, err).
			WithDetails(map[string]string{"revision": name, "expr": expr})
	}
	return revstore.Revision{Name: name, ID: id}, nil
}

// ListFileDiffs lists file differences between two commits by name and
// status. Copies are reported as additions and type changes as
// modifications.
func (s *Store) ListFileDiffs(ctx context.Context, oldRev, newRev revstore.Revision) ([]revstore.DiffEntry, error) {
	args := []string{"diff", "--name-status", "-z", "--no-ext-diff"}
	if s.detectRenames {
		args = append(args, "-M")
	} else {
		args = append(args, "--no-renames")
	}
	args = append(args, oldRev.ID, newRev.ID)

	out, err := s.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	entries := s.parseNameStatus(string(out))
	if !s.ignoreWhitespace {
		return entries, nil
	}
	return s.dropWhitespaceOnly(ctx, oldRev, newRev, entries)
}

// dropWhitespaceOnly removes modifications whose only differences are
// whitespace. "--name-status" lists them regardless of -w; "--numstat"
// omits them.
func (s *Store) dropWhitespaceOnly(ctx context.Context, oldRev, newRev revstore.Revision, entries []revstore.DiffEntry) ([]revstore.DiffEntry, error) {
	if !slices.ContainsFunc(entries, func(e revstore.DiffEntry) bool { return e.Kind == revstore.ChangeModify }) {
		return entries, nil
	}
	out, err := s.run(ctx, "diff", "-w", "--numstat", "-z", "--no-ext-diff", "--no-renames", oldRev.ID, newRev.ID)
	if err != nil {
		return nil, err
	}
	changed := parseNumstatPaths(string(out))

	kept := entries[:0]
	for _, e := range entries {
		if e.Kind == revstore.ChangeModify && !changed[e.NewPath] {
			continue
		}
		kept = append(kept, e)
	}
	if dropped := len(entries) - len(kept); dropped > 0 {
		s.logger.Debug("Dropped whitespace-only changes", "count", dropped)
	}
	return kept, nil
}

// parseNumstatPaths collects the paths of NUL-terminated "--numstat -z"
// records ("added\tdeleted\tpath").
func parseNumstatPaths(out string) map[string]bool {
	paths := make(map[string]bool)
	for _, rec := range strings.Split(out, "\x00") {
		parts := strings.SplitN(rec, "\t", 3)
		if len(parts) == 3 && parts[2] != "" {
			paths[parts[2]] = true
		}
	}
	return paths
}

// parseNameStatus parses NUL-separated "--name-status -z" output.
func (s *Store) parseNameStatus(out string) []revstore.DiffEntry {
	fields := strings.Split(out, "\x00")
	entries := make([]revstore.DiffEntry, 0, len(fields)/2)

	for i := 0; i < len(fields); {
		status := fields[i]
		if status == "" {
			i++
			continue
		}
		switch status[0] {
		case 'R', 'C':
			if i+2 >= len(fields) {
				return entries
			}
			if status[0] == 'R' {
				entries = append(entries, revstore.DiffEntry{OldPath: fields[i+1], NewPath: fields[i+2], Kind: revstore.ChangeRename})
			} else {
				entries = append(entries, revstore.DiffEntry{NewPath: fields[i+2], Kind: revstore.ChangeAdd})
			}
			i += 3
			continue
		}

		if i+1 >= len(fields) {
			return entries
		}
		path := fields[i+1]
		switch status[0] {
		case 'A':
			entries = append(entries, revstore.DiffEntry{NewPath: path, Kind: revstore.ChangeAdd})
		case 'M', 'T':
			entries = append(entries, revstore.DiffEntry{OldPath: path, NewPath: path, Kind: revstore.ChangeModify})
		case 'D':
			entries = append(entries, revstore.DiffEntry{OldPath: path, Kind: revstore.ChangeDelete})
		default:
			s.logger.Warn("Ignoring unsupported diff status", "status", status, "path", path)
		}
		i += 2
	}
	return entries
}

// ReadFile returns the blob at path in rev.
func (s *Store) ReadFile(ctx context.Context, rev revstore.Revision, path string) ([]byte, error) {
	out, err := s.run(ctx, "cat-file", "blob", rev.ID+":"+path)
	if err != nil {
		if errors.IsCode(err, errors.InternalError) {
			return nil, errors.New(errors.FileNotFound, path+" not found at "+rev.Name, err)
		}
		return nil, err
	}
	return out, nil
}

// FileHunks returns the zero-context hunks of one entry.
func (s *Store) FileHunks(ctx context.Context, oldRev, newRev revstore.Revision, entry revstore.DiffEntry) ([]revstore.Hunk, error) {
	args := []string{"diff", "-U0", "--no-color", "--no-ext-diff"}
	if s.ignoreWhitespace {
		args = append(args, "-w")
	}
	paths := []string{entry.Path()}
	if entry.Kind == revstore.ChangeRename {
		args = append(args, "-M")
		paths = []string{entry.OldPath, entry.NewPath}
	}
	args = append(args, oldRev.ID, newRev.ID, "--")
	args = append(args, paths...)

	out, err := s.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseHunks(out)
}

func parseHunks(patch []byte) ([]revstore.Hunk, error) {
	// header-only output: pure renames, mode or whitespace-only changes
	if !bytes.Contains(patch, []byte("\n@@ ")) {
		return nil, nil
	}
	fileDiffs, err := godiff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to parse diff", err)
	}

	var hunks []revstore.Hunk
	for _, fd := range fileDiffs {
		for _, h := range fd.Hunks {
			hunks = append(hunks, revstore.Hunk{
				Old: revstore.LineSpan{Start: int(h.OrigStartLine), Count: int(h.OrigLines)},
				New: revstore.LineSpan{Start: int(h.NewStartLine), Count: int(h.NewLines)},
			})
		}
	}
	return hunks, nil
}
