package testutil

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// updateGolden controls whether golden files should be rewritten.
// Use: go test ./... -run Golden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// CompareGolden compares got against the golden file, failing with a diff on
// mismatch. The data is normalized first. With -update the golden file is
// rewritten instead.
func CompareGolden(t *testing.T, fixture *FixtureContext, name string, got any) {
	t.Helper()

	normalized := MarshalNormalized(t, fixture, got)
	goldenPath := fixture.ExpectedPath(name)

	if *updateGolden {
		if err := os.MkdirAll(fixture.ExpectedDir, 0o755); err != nil {
			t.Fatalf("Failed to create expected directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, normalized, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, normalized, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, unifiedDiff(string(expected), string(normalized), goldenPath), t.Name())
	}
}

func unifiedDiff(expected, got, path string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(got),
		FromFile: path + " (expected)",
		ToFile:   path + " (got)",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}
