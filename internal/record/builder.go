package record

import (
	"context"
	"fmt"
	"log/slog"

	"mdiff/internal/match"
	"mdiff/internal/revstore"
	"mdiff/internal/unit"
)

// Builder produces change records. All I/O goes through the store.
type Builder struct {
	store  revstore.Store
	parser unit.Parser
	policy Policy
	logger *slog.Logger
}

// NewBuilder creates a record builder.
func NewBuilder(store revstore.Store, parser unit.Parser, policy Policy, logger *slog.Logger) *Builder {
	return &Builder{store: store, parser: parser, policy: policy, logger: logger}
}

// Build returns the record for entry. A nil record with a non-empty reason
// means the entry is ineligible; an error means it could not be evaluated.
func (b *Builder) Build(ctx context.Context, oldRev, newRev revstore.Revision, entry revstore.DiffEntry) (*ClassInfo, SkipReason, error) {
	if reason := b.policy.Skip(entry); reason != SkipNone {
		return nil, reason, nil
	}

	newUnit, err := b.load(ctx, newRev, entry.NewPath)
	if err != nil {
		return nil, SkipNone, err
	}
	if !newUnit.HasClass() {
		return nil, SkipNoClass, nil
	}

	if entry.Kind == revstore.ChangeAdd {
		methods := newUnit.Methods()
		infos := make([]MethodInfo, len(methods))
		for i, m := range methods {
			infos[i] = NewMethodInfo(m, match.New)
		}
		return b.record(entry, newUnit, KindAdd, infos), SkipNone, nil
	}

	hunks, err := b.store.FileHunks(ctx, oldRev, newRev, entry)
	if err != nil {
		return nil, SkipNone, fmt.Errorf("hunks for %s: %w", entry.Path(), err)
	}
	added, deleted := ProjectHunks(hunks)

	oldUnit, err := b.load(ctx, oldRev, entry.OldPath)
	if err != nil {
		return nil, SkipNone, err
	}

	if oldUnit.Primary == nil {
		b.logger.Debug("Old revision declares no type, all methods are new", "path", entry.OldPath)
	}

	infos := []MethodInfo{}
	for _, c := range match.Changes(oldUnit, newUnit) {
		infos = append(infos, NewMethodInfo(c.Method, c.Kind))
	}

	rec := b.record(entry, newUnit, KindReplace, infos)
	rec.AddedLines = added
	rec.DeletedLines = deleted
	return rec, SkipNone, nil
}

func (b *Builder) load(ctx context.Context, rev revstore.Revision, path string) (*unit.RevisionUnit, error) {
	src, err := b.store.ReadFile(ctx, rev, path)
	if err != nil {
		return nil, err
	}
	u, err := unit.Load(ctx, b.parser, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s at %s: %w", path, rev.Name, err)
	}
	return u, nil
}

func (b *Builder) record(entry revstore.DiffEntry, u *unit.RevisionUnit, kind ChangeKind, methods []MethodInfo) *ClassInfo {
	return &ClassInfo{
		ClassFile:   entry.NewPath,
		ClassName:   u.ClassName(),
		PackageName: u.Package,
		ChangeKind:  kind,
		Methods:     methods,
	}
}
