package record

import (
	"strings"

	"mdiff/internal/config"
	"mdiff/internal/revstore"
)

// SkipReason explains why an entry produced no record.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipTestSource SkipReason = "test-source"
	SkipExtension  SkipReason = "not-source"
	SkipDeleted    SkipReason = "deleted"
	SkipNoClass    SkipReason = "no-class"
)

// Policy decides which entries are eligible for a record.
type Policy struct {
	SourceExtension string
	TestDirs        []string
}

// PolicyFromConfig builds a policy from the diff configuration.
func PolicyFromConfig(cfg config.DiffConfig) Policy {
	return Policy{SourceExtension: cfg.SourceExtension, TestDirs: cfg.TestDirs}
}

// Skip returns the reason entry is ineligible, or SkipNone.
func (p Policy) Skip(entry revstore.DiffEntry) SkipReason {
	path := entry.Path()
	if p.isTestSource(path) {
		return SkipTestSource
	}
	if !strings.HasSuffix(path, p.SourceExtension) {
		return SkipExtension
	}
	if entry.Kind == revstore.ChangeDelete {
		return SkipDeleted
	}
	return SkipNone
}

func (p Policy) isTestSource(path string) bool {
	rooted := "/" + strings.TrimPrefix(path, "/")
	for _, dir := range p.TestDirs {
		dir = strings.Trim(dir, "/")
		if dir == "" {
			continue
		}
		if strings.Contains(rooted, "/"+dir+"/") {
			return true
		}
	}
	return false
}
