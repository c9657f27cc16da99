package testutil

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// Placeholders written into golden files for values that vary per run or
// per checkout location.
const (
	RunIDPlaceholder       = "RUN_ID"
	FingerprintPlaceholder = "FINGERPRINT"
	FixturePlaceholder     = "FIXTURE"
)

// Normalize returns a JSON-shaped copy of data with run identifiers,
// durations and fingerprints replaced and fixture paths made relative.
func Normalize(t *testing.T, fixture *FixtureContext, data any) any {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}
	return normalizeValue(v, filepath.ToSlash(fixture.Root))
}

// MarshalNormalized normalizes data and renders it as indented JSON with a
// trailing newline. Map keys come out sorted.
func MarshalNormalized(t *testing.T, fixture *FixtureContext, data any) []byte {
	t.Helper()

	out, err := json.MarshalIndent(Normalize(t, fixture, data), "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return append(out, '\n')
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeField(k, item, root)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeValue(item, root)
		}
		return val
	case string:
		return normalizePath(val, root)
	default:
		return v
	}
}

func normalizeField(key string, v any, root string) any {
	switch key {
	case "runId":
		return RunIDPlaceholder
	case "duration", "durationMs":
		return 0
	case "fingerprint":
		if s, ok := v.(string); ok && s != "" {
			return FingerprintPlaceholder
		}
		return v
	default:
		return normalizeValue(v, root)
	}
}

func normalizePath(s, root string) string {
	slashed := filepath.ToSlash(s)
	if slashed == root || strings.HasPrefix(slashed, root+"/") {
		return FixturePlaceholder + strings.TrimPrefix(slashed, root)
	}
	return s
}
