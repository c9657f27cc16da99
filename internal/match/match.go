// Package match finds the methods of a new revision that are new or
// structurally changed relative to an old revision.
package match

import "mdiff/internal/unit"

// Classification says why a method was reported.
type Classification int

const (
	New Classification = iota
	Changed
)

func (c Classification) String() string {
	if c == Changed {
		return "changed"
	}
	return "new"
}

// Change is one reported method with its classification.
type Change struct {
	Method unit.MethodShape
	Kind   Classification
}

// Changes compares newUnit against oldUnit by method key and fingerprint.
// The result is in newUnit's declaration order. Methods present only in
// oldUnit are not reported. When oldUnit repeats a key, its last occurrence
// is the one compared.
func Changes(oldUnit, newUnit *unit.RevisionUnit) []Change {
	oldMethods := oldUnit.Methods()
	byKey := make(map[string]unit.MethodShape, len(oldMethods))
	for _, m := range oldMethods {
		byKey[m.Key()] = m
	}

	var changes []Change
	for _, m := range newUnit.Methods() {
		prev, found := byKey[m.Key()]
		switch {
		case !found:
			changes = append(changes, Change{Method: m, Kind: New})
		case prev.Fingerprint() != m.Fingerprint():
			changes = append(changes, Change{Method: m, Kind: Changed})
		}
	}
	return changes
}
