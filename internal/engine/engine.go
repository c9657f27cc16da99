// Package engine compares two revisions of a repository at method
// granularity: it lists file differences, partitions them into chunks,
// evaluates the chunks on a worker pool and aggregates the change records in
// diff order.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"mdiff/internal/config"
	"mdiff/internal/errors"
	"mdiff/internal/parsecache"
	"mdiff/internal/pool"
	"mdiff/internal/record"
	"mdiff/internal/revstore"
	"mdiff/internal/unit"
)

// Stats summarizes one comparison run.
type Stats struct {
	Entries  int           `json:"entries"`
	Chunks   int           `json:"chunks"`
	Records  int           `json:"records"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of a comparison. An empty Records slice means the
// comparison succeeded and found nothing.
type Result struct {
	RunID   string              `json:"runId"`
	Old     revstore.Revision   `json:"old"`
	New     revstore.Revision   `json:"new"`
	Records []*record.ClassInfo `json:"records"`
	Stats   Stats               `json:"stats"`
}

// Engine runs comparisons against one store. It owns a worker pool and must
// be closed. Concurrent comparisons on one Engine are not supported when
// branch synchronization is enabled.
type Engine struct {
	store   revstore.Store
	cfg     *config.Config
	logger  *slog.Logger
	builder *record.Builder
	pool    *pool.Pool
}

// New creates an engine. Parsed units are cached per cfg.Cache.ParsedUnits.
func New(store revstore.Store, parser unit.Parser, cfg *config.Config, logger *slog.Logger) *Engine {
	if cache, err := parsecache.New(parser, cfg.Cache.ParsedUnits); err == nil {
		parser = cache
	}

	return &Engine{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		builder: record.NewBuilder(store, parser, record.PolicyFromConfig(cfg.Diff), logger),
		pool: pool.New(pool.Config{
			Workers:   cfg.Diff.Workers,
			QueueSize: cfg.Diff.QueueSize,
		}, logger),
	}
}

// Close stops the worker pool.
func (e *Engine) Close() error {
	return e.pool.Close()
}

// ValidateTagArgs checks tag comparison arguments. It touches nothing but the
// repository path.
func ValidateTagArgs(repoRoot, branch, newTag, oldTag string) error {
	missing := map[string]string{
		"repository path": repoRoot,
		"branch":          branch,
		"new tag":         newTag,
		"old tag":         oldTag,
	}
	for _, name := range []string{"repository path", "branch", "new tag", "old tag"} {
		if missing[name] == "" {
			return errors.New(errors.InvalidArgument, name+" must not be empty", nil)
		}
	}
	if newTag == oldTag {
		return errors.New(errors.InvalidArgument, "new tag and old tag must differ", nil).
			WithDetails(map[string]string{"tag": newTag})
	}
	if _, err := os.Stat(repoRoot); err != nil {
		return errors.New(errors.InvalidArgument, "repository path does not exist", err).
			WithDetails(map[string]string{"repoRoot": repoRoot})
	}
	return nil
}

// CompareBranches synchronizes both branches (old first) when git.sync is
// enabled, then compares their tips.
func (e *Engine) CompareBranches(ctx context.Context, newBranch, oldBranch string) (*Result, error) {
	if newBranch == "" || oldBranch == "" {
		return nil, errors.New(errors.InvalidArgument, "branch names must not be empty", nil)
	}
	resolver, err := e.resolver()
	if err != nil {
		return nil, err
	}

	if err := e.sync(ctx, oldBranch, newBranch); err != nil {
		return nil, err
	}

	oldRev, err := resolver.ResolveBranch(ctx, oldBranch)
	if err != nil {
		return nil, errors.Wrap(err, errors.RevisionNotFound, "resolving branch "+oldBranch)
	}
	newRev, err := resolver.ResolveBranch(ctx, newBranch)
	if err != nil {
		return nil, errors.Wrap(err, errors.RevisionNotFound, "resolving branch "+newBranch)
	}
	return e.Compare(ctx, oldRev, newRev)
}

// CompareTags validates its arguments, synchronizes branch when git.sync is
// enabled, then compares the two tags.
func (e *Engine) CompareTags(ctx context.Context, branch, newTag, oldTag string) (*Result, error) {
	if err := ValidateTagArgs(e.cfg.RepoRoot, branch, newTag, oldTag); err != nil {
		return nil, err
	}
	resolver, err := e.resolver()
	if err != nil {
		return nil, err
	}

	if err := e.sync(ctx, branch); err != nil {
		return nil, err
	}

	oldRev, err := resolver.ResolveTag(ctx, oldTag)
	if err != nil {
		return nil, errors.Wrap(err, errors.RevisionNotFound, "resolving tag "+oldTag)
	}
	newRev, err := resolver.ResolveTag(ctx, newTag)
	if err != nil {
		return nil, errors.Wrap(err, errors.RevisionNotFound, "resolving tag "+newTag)
	}
	return e.Compare(ctx, oldRev, newRev)
}

func (e *Engine) resolver() (revstore.Resolver, error) {
	resolver, ok := e.store.(revstore.Resolver)
	if !ok {
		return nil, errors.New(errors.InvalidArgument, "store cannot resolve branches or tags", nil)
	}
	return resolver, nil
}

// sync runs before any worker starts; it mutates the working tree.
func (e *Engine) sync(ctx context.Context, branches ...string) error {
	if !e.cfg.Git.Sync {
		return nil
	}
	syncer, ok := e.store.(revstore.Syncer)
	if !ok {
		e.logger.Debug("Store does not support branch sync, skipping")
		return nil
	}
	for _, branch := range branches {
		if err := syncer.SyncBranch(ctx, branch); err != nil {
			return errors.Wrap(err, errors.SyncFailed, "synchronizing branch "+branch)
		}
	}
	return nil
}

// Compare evaluates every file difference between two resolved revisions.
// Entries that cannot be evaluated are counted in Stats.Failed and omitted;
// only failures affecting the whole run are returned as errors.
func (e *Engine) Compare(ctx context.Context, oldRev, newRev revstore.Revision) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := e.logger.With("runId", runID)

	entries, err := e.store.ListFileDiffs(ctx, oldRev, newRev)
	if err != nil {
		return nil, errors.Wrap(err, errors.InternalError, "listing file differences")
	}

	chunks := Partition(entries, e.cfg.Diff.ChunkSize)
	logger.Info("Comparing revisions",
		"old", oldRev.String(),
		"new", newRev.String(),
		"entries", len(entries),
		"chunks", len(chunks),
	)

	futures := make([]*pool.Future[chunkResult], len(chunks))
	for i, chunk := range chunks {
		chunk := chunk
		futures[i] = pool.Submit(ctx, e.pool, func(ctx context.Context) (chunkResult, error) {
			return e.processChunk(ctx, logger, oldRev, newRev, chunk), nil
		})
	}

	result := &Result{
		RunID:   runID,
		Old:     oldRev,
		New:     newRev,
		Records: []*record.ClassInfo{},
	}
	// collect in submission order, not completion order
	for i, f := range futures {
		cr, err := f.Wait(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.InternalError, fmt.Sprintf("evaluating chunk %d", i))
		}
		result.Records = append(result.Records, cr.records...)
		result.Stats.Skipped += cr.skipped
		result.Stats.Failed += cr.failed
	}

	result.Stats.Entries = len(entries)
	result.Stats.Chunks = len(chunks)
	result.Stats.Records = len(result.Records)
	result.Stats.Duration = time.Since(start)

	logger.Info("Comparison finished",
		"records", result.Stats.Records,
		"skipped", result.Stats.Skipped,
		"failed", result.Stats.Failed,
		"duration", result.Stats.Duration.String(),
	)
	return result, nil
}

type chunkResult struct {
	records []*record.ClassInfo
	skipped int
	failed  int
}

// processChunk evaluates entries sequentially. It never fails: per-entry
// problems are logged and counted.
func (e *Engine) processChunk(ctx context.Context, logger *slog.Logger, oldRev, newRev revstore.Revision, chunk []revstore.DiffEntry) chunkResult {
	var cr chunkResult
	for _, entry := range chunk {
		rec, reason, err := e.processEntry(ctx, oldRev, newRev, entry)
		switch {
		case err != nil:
			cr.failed++
			logger.Warn("Skipping entry after error", "path", entry.Path(), "error", err.Error())
		case rec == nil:
			cr.skipped++
			logger.Debug("Skipping entry", "path", entry.Path(), "reason", string(reason))
		default:
			cr.records = append(cr.records, rec)
		}
	}
	return cr
}

func (e *Engine) processEntry(ctx context.Context, oldRev, newRev revstore.Revision, entry revstore.DiffEntry) (rec *record.ClassInfo, reason record.SkipReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.builder.Build(ctx, oldRev, newRev, entry)
}

// Partition splits entries into consecutive chunks of at most size entries.
// Chunks do not share backing storage with each other. size < 1 is treated
// as 1.
func Partition(entries []revstore.DiffEntry, size int) [][]revstore.DiffEntry {
	if size < 1 {
		size = 1
	}
	if len(entries) == 0 {
		return nil
	}
	chunks := make([][]revstore.DiffEntry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end:end])
	}
	return chunks
}
