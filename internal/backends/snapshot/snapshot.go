// Package snapshot implements the revision store over two directory trees,
// one per revision. Paths are slash-separated and relative to each root.
package snapshot

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"mdiff/internal/config"
	"mdiff/internal/errors"
	"mdiff/internal/revstore"
)

// Store compares an old and a new directory tree.
type Store struct {
	oldRev           revstore.Revision
	newRev           revstore.Revision
	ignoreWhitespace bool
	logger           *slog.Logger
}

// Open creates a store over oldDir and newDir. Both must be directories.
func Open(oldDir, newDir string, cfg config.DiffConfig, logger *slog.Logger) (*Store, error) {
	oldRev, err := revision(oldDir)
	if err != nil {
		return nil, err
	}
	newRev, err := revision(newDir)
	if err != nil {
		return nil, err
	}
	return &Store{
		oldRev:           oldRev,
		newRev:           newRev,
		ignoreWhitespace: cfg.IgnoreWhitespace,
		logger:           logger,
	}, nil
}

// revision names a tree by the directory as given; ID is its absolute path.
func revision(dir string) (revstore.Revision, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return revstore.Revision{}, errors.New(errors.InvalidArgument, "invalid directory "+dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return revstore.Revision{}, errors.New(errors.RepositoryNotFound, dir+" is not a directory", err)
	}
	return revstore.Revision{Name: dir, ID: abs}, nil
}

// Revisions returns the old and new revisions.
func (s *Store) Revisions() (oldRev, newRev revstore.Revision) {
	return s.oldRev, s.newRev
}

// ListFileDiffs lists files added, deleted or modified between the two
// trees, sorted by path. Hidden directories are not walked. With
// whitespace ignored, files differing only in whitespace are unchanged.
func (s *Store) ListFileDiffs(ctx context.Context, oldRev, newRev revstore.Revision) ([]revstore.DiffEntry, error) {
	oldFiles, err := listFiles(ctx, oldRev.ID)
	if err != nil {
		return nil, err
	}
	newFiles, err := listFiles(ctx, newRev.ID)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(oldFiles)+len(newFiles))
	for p := range oldFiles {
		paths = append(paths, p)
	}
	for p := range newFiles {
		if !oldFiles[p] {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var entries []revstore.DiffEntry
	for _, p := range paths {
		switch {
		case !oldFiles[p]:
			entries = append(entries, revstore.DiffEntry{NewPath: p, Kind: revstore.ChangeAdd})
		case !newFiles[p]:
			entries = append(entries, revstore.DiffEntry{OldPath: p, Kind: revstore.ChangeDelete})
		default:
			same, err := s.sameContent(ctx, oldRev, newRev, p)
			if err != nil {
				return nil, err
			}
			if !same {
				entries = append(entries, revstore.DiffEntry{OldPath: p, NewPath: p, Kind: revstore.ChangeModify})
			}
		}
	}
	s.logger.Debug("Listed snapshot differences", "old", oldRev.ID, "new", newRev.ID, "entries", len(entries))
	return entries, nil
}

func (s *Store) sameContent(ctx context.Context, oldRev, newRev revstore.Revision, path string) (bool, error) {
	a, err := s.ReadFile(ctx, oldRev, path)
	if err != nil {
		return false, err
	}
	b, err := s.ReadFile(ctx, newRev, path)
	if err != nil {
		return false, err
	}
	if s.ignoreWhitespace {
		return stripSpace(string(a)) == stripSpace(string(b)), nil
	}
	return bytes.Equal(a, b), nil
}

func listFiles(ctx context.Context, root string) (map[string]bool, error) {
	files := make(map[string]bool)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.InternalError, "walking "+root)
	}
	return files, nil
}

// ReadFile reads path under the revision's root.
func (s *Store) ReadFile(ctx context.Context, rev revstore.Revision, path string) ([]byte, error) {
	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return nil, errors.New(errors.FileNotFound, path+" is outside "+rev.Name, nil)
	}
	data, err := os.ReadFile(filepath.Join(rev.ID, local))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.FileNotFound, path+" not found in "+rev.Name, err)
		}
		return nil, errors.New(errors.InternalError, "reading "+path, err)
	}
	return data, nil
}

// FileHunks computes zero-context line hunks between the two versions of
// the entry. Empty sides follow the unified diff convention: Start is the
// line after which the other side's lines apply.
func (s *Store) FileHunks(ctx context.Context, oldRev, newRev revstore.Revision, entry revstore.DiffEntry) ([]revstore.Hunk, error) {
	var a, b []byte
	var err error
	if entry.OldPath != "" {
		if a, err = s.ReadFile(ctx, oldRev, entry.OldPath); err != nil {
			return nil, err
		}
	}
	if entry.NewPath != "" {
		if b, err = s.ReadFile(ctx, newRev, entry.NewPath); err != nil {
			return nil, err
		}
	}
	return LineHunks(a, b, s.ignoreWhitespace), nil
}

// LineHunks diffs a and b line by line.
func LineHunks(a, b []byte, ignoreWhitespace bool) []revstore.Hunk {
	aLines := splitLines(string(a), ignoreWhitespace)
	bLines := splitLines(string(b), ignoreWhitespace)

	var hunks []revstore.Hunk
	for _, op := range difflib.NewMatcher(aLines, bLines).GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		hunks = append(hunks, revstore.Hunk{
			Old: span(op.I1, op.I2),
			New: span(op.J1, op.J2),
		})
	}
	return hunks
}

// span converts a 0-based half-open range to a LineSpan.
func span(lo, hi int) revstore.LineSpan {
	if hi == lo {
		return revstore.LineSpan{Start: lo, Count: 0}
	}
	return revstore.LineSpan{Start: lo + 1, Count: hi - lo}
}

func splitLines(s string, ignoreWhitespace bool) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if ignoreWhitespace {
		for i, l := range lines {
			lines[i] = stripSpace(l)
		}
	}
	return lines
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
