// Package record builds per-file change records from a file-level
// difference and the parsed units on both sides of it.
package record

import (
	"mdiff/internal/match"
	"mdiff/internal/revstore"
	"mdiff/internal/unit"
)

// ChangeKind classifies a record.
type ChangeKind string

const (
	// KindAdd marks a file introduced in the new revision.
	KindAdd ChangeKind = "ADD"
	// KindReplace marks an existing file that was modified.
	KindReplace ChangeKind = "REPLACE"
)

// MethodInfo is one new or changed method.
type MethodInfo struct {
	MethodName  string `json:"methodName" yaml:"methodName" toml:"methodName"`
	Parameters  string `json:"parameters" yaml:"parameters" toml:"parameters"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint" toml:"fingerprint"`
	// Change is "new" for a method whose key the old revision lacks and
	// "changed" for one whose structure differs.
	Change    string `json:"change" yaml:"change" toml:"change"`
	StartLine int    `json:"startLine,omitempty" yaml:"startLine,omitempty" toml:"startLine,omitempty"`
	EndLine   int    `json:"endLine,omitempty" yaml:"endLine,omitempty" toml:"endLine,omitempty"`
}

// LineRange is an inclusive 1-based line range.
type LineRange struct {
	Start int `json:"start" yaml:"start" toml:"start"`
	End   int `json:"end" yaml:"end" toml:"end"`
}

// ClassInfo is the change record for one file.
type ClassInfo struct {
	ClassFile    string       `json:"classFile" yaml:"classFile" toml:"classFile"`
	ClassName    string       `json:"className" yaml:"className" toml:"className"`
	PackageName  string       `json:"packageName" yaml:"packageName" toml:"packageName"`
	ChangeKind   ChangeKind   `json:"changeKind" yaml:"changeKind" toml:"changeKind"`
	Methods      []MethodInfo `json:"methods" yaml:"methods" toml:"methods"`
	AddedLines   []LineRange  `json:"addedLines,omitempty" yaml:"addedLines,omitempty" toml:"addedLines,omitempty"`
	DeletedLines []LineRange  `json:"deletedLines,omitempty" yaml:"deletedLines,omitempty" toml:"deletedLines,omitempty"`
}

// QualifiedName returns package.Class, or Class in the default package.
func (c *ClassInfo) QualifiedName() string {
	if c.PackageName == "" {
		return c.ClassName
	}
	return c.PackageName + "." + c.ClassName
}

// NewMethodInfo converts a parsed method into its output form.
func NewMethodInfo(m unit.MethodShape, kind match.Classification) MethodInfo {
	return MethodInfo{
		MethodName:  m.Name,
		Parameters:  m.Params,
		Fingerprint: m.Fingerprint(),
		Change:      kind.String(),
		StartLine:   m.StartLine,
		EndLine:     m.EndLine,
	}
}

// ProjectHunks splits hunks into added ranges (new side) and deleted ranges
// (old side). A side the hunk does not touch contributes no range.
func ProjectHunks(hunks []revstore.Hunk) (added, deleted []LineRange) {
	for _, h := range hunks {
		if h.Old.Count > 0 {
			deleted = append(deleted, LineRange{Start: h.Old.Start, End: h.Old.End()})
		}
		if h.New.Count > 0 {
			added = append(added, LineRange{Start: h.New.Start, End: h.New.End()})
		}
	}
	return added, deleted
}
