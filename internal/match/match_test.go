package match

import (
	"fmt"
	"math/rand"
	"testing"

	"mdiff/internal/unit"
)

func method(name, params, body string) unit.MethodShape {
	return unit.MethodShape{Name: name, Params: params, Text: name + params + "{" + body + "}"}
}

func class(methods ...unit.MethodShape) *unit.RevisionUnit {
	return &unit.RevisionUnit{Package: "p", Primary: &unit.TypeShape{Name: "C", Methods: methods}}
}

func changedMethods(changes []Change) []unit.MethodShape {
	var methods []unit.MethodShape
	for _, c := range changes {
		methods = append(methods, c.Method)
	}
	return methods
}

func names(methods []unit.MethodShape) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.Key()
	}
	return out
}

func TestChanges(t *testing.T) {
	oldUnit := class(
		method("start", "[]", "a"),
		method("stop", "[]", "b"),
		method("gone", "[]", "c"),
	)
	newUnit := class(
		method("init", "[]", "x"),
		method("start", "[]", "a"),
		method("stop", "[]", "changed"),
		method("start", "[int port]", "a"),
	)

	changes := Changes(oldUnit, newUnit)

	want := []struct {
		key  string
		kind Classification
	}{
		{"init[]", New},
		{"stop[]", Changed},
		{"start[int port]", New},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %v", len(changes), len(want), changes)
	}
	for i, w := range want {
		if changes[i].Method.Key() != w.key || changes[i].Kind != w.kind {
			t.Errorf("change %d = %s/%s, want %s/%s", i, changes[i].Method.Key(), changes[i].Kind, w.key, w.kind)
		}
	}
}

func TestChanges_EdgeCases(t *testing.T) {
	m := method("run", "[]", "body")

	tests := []struct {
		name    string
		oldUnit *unit.RevisionUnit
		newUnit *unit.RevisionUnit
		want    []string
	}{
		{"identical", class(m), class(m), nil},
		{"nil old reports everything", nil, class(m), []string{"run[]"}},
		{"old without type", &unit.RevisionUnit{}, class(m), []string{"run[]"}},
		{"nil new", class(m), nil, nil},
		{"deleted method not reported", class(m, method("x", "[]", "")), class(m), nil},
		{"last duplicate wins", class(method("run", "[]", "other"), m), class(m), nil},
		{"first duplicate loses", class(m, method("run", "[]", "other")), class(m), []string{"run[]"}},
		{"param text is identity", class(method("f", "[int a]", "b")), class(method("f", "[int x]", "b")), []string{"f[int x]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(changedMethods(Changes(tt.oldUnit, tt.newUnit)))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Changes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassification_String(t *testing.T) {
	if New.String() != "new" || Changed.String() != "changed" {
		t.Errorf("unexpected strings: %s, %s", New, Changed)
	}
}

// randomUnits builds an old/new pair where each new method is either copied,
// edited or freshly added.
func randomUnits(r *rand.Rand) (*unit.RevisionUnit, *unit.RevisionUnit) {
	var oldMethods, newMethods []unit.MethodShape
	n := r.Intn(12)
	for i := 0; i < n; i++ {
		m := method(fmt.Sprintf("m%d", i), fmt.Sprintf("[int a%d]", r.Intn(2)), fmt.Sprintf("b%d", r.Intn(3)))
		if r.Intn(4) > 0 {
			oldMethods = append(oldMethods, m)
		}
		switch r.Intn(3) {
		case 0:
			newMethods = append(newMethods, m)
		case 1:
			m.Text += "!"
			newMethods = append(newMethods, m)
		}
	}
	return class(oldMethods...), class(newMethods...)
}

func TestChanges_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		oldUnit, newUnit := randomUnits(r)
		got := changedMethods(Changes(oldUnit, newUnit))

		oldByKey := map[string]string{}
		for _, m := range oldUnit.Methods() {
			oldByKey[m.Key()] = m.Fingerprint()
		}

		// expected: exactly the new methods whose key is absent or whose
		// fingerprint differs, in order
		var want []unit.MethodShape
		for _, m := range newUnit.Methods() {
			fp, found := oldByKey[m.Key()]
			if !found || fp != m.Fingerprint() {
				want = append(want, m)
			}
		}

		if fmt.Sprint(names(got)) != fmt.Sprint(names(want)) {
			t.Fatalf("iteration %d: got %v, want %v", iter, names(got), names(want))
		}

		// output is a subsequence of the new unit's methods
		j := 0
		for _, m := range newUnit.Methods() {
			if j < len(got) && got[j].Key() == m.Key() && got[j].Text == m.Text {
				j++
			}
		}
		if j != len(got) {
			t.Fatalf("iteration %d: output is not a subsequence of declaration order", iter)
		}
	}
}
