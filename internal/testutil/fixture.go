package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FixtureContext holds information about a loaded fixture.
type FixtureContext struct {
	// Name is the fixture directory name under testdata/fixtures
	Name string

	// Root is the absolute path to the fixture directory
	Root string

	// OldDir and NewDir hold the two source trees being compared
	OldDir string
	NewDir string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadFixture loads a fixture, failing the test on error.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	fixtureDir := filepath.Join(fixturesRoot(t), name)
	for _, dir := range []string{"old", "new"} {
		if _, err := os.Stat(filepath.Join(fixtureDir, dir)); err != nil {
			t.Fatalf("Fixture tree missing: %v", err)
		}
	}

	return &FixtureContext{
		Name:        name,
		Root:        fixtureDir,
		OldDir:      filepath.Join(fixtureDir, "old"),
		NewDir:      filepath.Join(fixtureDir, "new"),
		ExpectedDir: filepath.Join(fixtureDir, "expected"),
	}
}

// ExpectedPath returns the path to a golden file within the fixture.
// The name should not include the .json extension.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".json")
}

// fixturesRoot returns the absolute path to testdata/fixtures/.
func fixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// internal/testutil -> project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	root := filepath.Join(projectRoot, "testdata", "fixtures")
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("Fixtures root not found: %s", root)
	}
	return root
}
