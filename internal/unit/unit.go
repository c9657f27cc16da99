// Package unit models the structural snapshot of one source file at one
// revision: its package, its first top-level type, and that type's methods
// in declaration order.
package unit

import (
	"context"
	"fmt"
)

// MethodShape is one method or constructor of the primary type.
type MethodShape struct {
	Name string
	// Params is the parser's rendering of the parameter list. It is part of
	// the method identity and is compared verbatim.
	Params string
	// Text is the rendering of the full declaration (signature and body).
	// It only feeds the fingerprint.
	Text string

	StartLine int
	EndLine   int
}

// Key is the matching identity of a method slot: name followed by the
// rendered parameter list. Overloads whose parameters render identically
// share a key.
func (m MethodShape) Key() string {
	return m.Name + m.Params
}

// Fingerprint digests the structural text.
func (m MethodShape) Fingerprint() string {
	return Fingerprint(m.Text)
}

// TypeShape is the first top-level type declared in a file.
type TypeShape struct {
	Name      string
	Interface bool
	Methods   []MethodShape
}

// RevisionUnit is immutable once built.
type RevisionUnit struct {
	Package string
	Primary *TypeShape
}

// Methods returns the primary type's methods, or nil when there is no type.
func (u *RevisionUnit) Methods() []MethodShape {
	if u == nil || u.Primary == nil {
		return nil
	}
	return u.Primary.Methods
}

// HasClass reports whether the unit has a primary type that can produce a
// change record. Interfaces cannot.
func (u *RevisionUnit) HasClass() bool {
	return u != nil && u.Primary != nil && !u.Primary.Interface
}

// ClassName returns the primary type name, or "" when there is none.
func (u *RevisionUnit) ClassName() string {
	if u == nil || u.Primary == nil {
		return ""
	}
	return u.Primary.Name
}

// Parser turns source text into a RevisionUnit. ok is false when the source
// could not be parsed or declares no usable type; implementations must not
// panic on malformed input.
type Parser interface {
	Parse(ctx context.Context, src []byte) (u *RevisionUnit, ok bool)
}

// Load parses src and never fails: a parse failure, a panic inside the
// parser, or a file without a type all yield an empty unit.
func Load(ctx context.Context, p Parser, src []byte) (u *RevisionUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			u = &RevisionUnit{}
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	parsed, ok := p.Parse(ctx, src)
	if !ok || parsed == nil {
		return &RevisionUnit{}, nil
	}
	return parsed, nil
}
