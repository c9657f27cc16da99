// Package testutil provides fakes, fixtures and golden-file helpers shared by
// package tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"mdiff/internal/errors"
	"mdiff/internal/revstore"
	"mdiff/internal/unit"
)

// MemStore is an in-memory revision store. Revisions resolve to themselves:
// a name is known once a file has been put at it or it was declared with
// AddRevision.
type MemStore struct {
	mu        sync.Mutex
	files     map[string]map[string]string
	revisions map[string]bool
	diffs     []revstore.DiffEntry
	hunks     map[string][]revstore.Hunk
	readErrs  map[string]error

	// ListErr is returned by ListFileDiffs when set.
	ListErr error
	// SyncErr is returned by SyncBranch when set.
	SyncErr error

	synced []string
	reads  atomic.Int64
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		files:     make(map[string]map[string]string),
		revisions: make(map[string]bool),
		hunks:     make(map[string][]revstore.Hunk),
		readErrs:  make(map[string]error),
	}
}

// AddRevision declares a revision with no files.
func (s *MemStore) AddRevision(rev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revisions[rev] = true
}

// Put stores content for path at rev.
func (s *MemStore) Put(rev, path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revisions[rev] = true
	if s.files[rev] == nil {
		s.files[rev] = make(map[string]string)
	}
	s.files[rev][path] = content
}

// SetDiffs sets the entries returned by ListFileDiffs for any revision pair.
func (s *MemStore) SetDiffs(entries ...revstore.DiffEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diffs = append([]revstore.DiffEntry(nil), entries...)
}

// SetHunks sets the hunks returned for path.
func (s *MemStore) SetHunks(path string, hunks ...revstore.Hunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hunks[path] = hunks
}

// FailRead makes every read of path fail with err.
func (s *MemStore) FailRead(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErrs[path] = err
}

// Synced returns the branches passed to SyncBranch, in call order.
func (s *MemStore) Synced() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.synced...)
}

// Reads returns the number of ReadFile calls.
func (s *MemStore) Reads() int64 {
	return s.reads.Load()
}

func (s *MemStore) ListFileDiffs(ctx context.Context, oldRev, newRev revstore.Revision) ([]revstore.DiffEntry, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]revstore.DiffEntry(nil), s.diffs...), nil
}

func (s *MemStore) ReadFile(ctx context.Context, rev revstore.Revision, path string) ([]byte, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readErrs[path]; err != nil {
		return nil, err
	}
	content, ok := s.files[rev.ID][path]
	if !ok {
		return nil, errors.New(errors.FileNotFound, path+" not found at "+rev.Name, nil)
	}
	return []byte(content), nil
}

func (s *MemStore) FileHunks(ctx context.Context, oldRev, newRev revstore.Revision, entry revstore.DiffEntry) ([]revstore.Hunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hunks[entry.Path()], nil
}

func (s *MemStore) ResolveBranch(ctx context.Context, name string) (revstore.Revision, error) {
	return s.resolve(name)
}

func (s *MemStore) ResolveTag(ctx context.Context, name string) (revstore.Revision, error) {
	return s.resolve(name)
}

func (s *MemStore) resolve(name string) (revstore.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.revisions[name] {
		return revstore.Revision{}, errors.New(errors.RevisionNotFound, "unknown revision "+name, nil)
	}
	return revstore.Revision{Name: name, ID: name}, nil
}

func (s *MemStore) SyncBranch(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, name)
	return s.SyncErr
}

// LineParser parses a line-oriented stand-in for source code:
//
//	package com.acme
//	class Name            (or: interface Name)
//	method name [params] body...
//
// Only the first class or interface line counts; methods attach to it. A
// source containing the line "!broken" is absent and "!panic" panics.
type LineParser struct{}

func (LineParser) Parse(ctx context.Context, src []byte) (*unit.RevisionUnit, bool) {
	u := &unit.RevisionUnit{}
	for i, line := range strings.Split(string(src), "\n") {
		fields := strings.SplitN(strings.TrimSpace(line), " ", 4)
		switch fields[0] {
		case "!broken":
			return nil, false
		case "!panic":
			panic("parser panic")
		case "package":
			if len(fields) > 1 && u.Package == "" {
				u.Package = fields[1]
			}
		case "class", "interface":
			if len(fields) > 1 && u.Primary == nil {
				u.Primary = &unit.TypeShape{Name: fields[1], Interface: fields[0] == "interface"}
			}
		case "method":
			if u.Primary == nil || len(fields) < 3 {
				continue
			}
			body := ""
			if len(fields) == 4 {
				body = fields[3]
			}
			u.Primary.Methods = append(u.Primary.Methods, unit.MethodShape{
				Name:      fields[1],
				Params:    fields[2],
				Text:      fields[1] + fields[2] + "{" + body + "}",
				StartLine: i + 1,
				EndLine:   i + 1,
			})
		}
	}
	if u.Primary == nil {
		return nil, false
	}
	return u, true
}

// Source joins lines into LineParser input.
func Source(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
