package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mdiff/internal/engine"
	"mdiff/internal/match"
	"mdiff/internal/record"
	"mdiff/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
	FormatTOML  OutputFormat = "toml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatHuman, FormatYAML, FormatTOML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want json, human, yaml or toml)", s)
	}
}

// Report is the serialized form of a comparison result.
type Report struct {
	RunID       string              `json:"runId" yaml:"runId" toml:"runId"`
	OldRevision ReportRevision      `json:"oldRevision" yaml:"oldRevision" toml:"oldRevision"`
	NewRevision ReportRevision      `json:"newRevision" yaml:"newRevision" toml:"newRevision"`
	Stats       ReportStats         `json:"stats" yaml:"stats" toml:"stats"`
	Records     []*record.ClassInfo `json:"records" yaml:"records" toml:"records"`
}

// ReportRevision names a compared revision.
type ReportRevision struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	ID   string `json:"id" yaml:"id" toml:"id"`
}

// ReportStats mirrors engine.Stats with the duration in milliseconds.
type ReportStats struct {
	Entries    int   `json:"entries" yaml:"entries" toml:"entries"`
	Chunks     int   `json:"chunks" yaml:"chunks" toml:"chunks"`
	Records    int   `json:"records" yaml:"records" toml:"records"`
	Skipped    int   `json:"skipped" yaml:"skipped" toml:"skipped"`
	Failed     int   `json:"failed" yaml:"failed" toml:"failed"`
	DurationMs int64 `json:"durationMs" yaml:"durationMs" toml:"durationMs"`
}

// NewReport converts an engine result.
func NewReport(res *engine.Result) *Report {
	records := res.Records
	if records == nil {
		records = []*record.ClassInfo{}
	}
	return &Report{
		RunID:       res.RunID,
		OldRevision: ReportRevision{Name: res.Old.Name, ID: res.Old.ID},
		NewRevision: ReportRevision{Name: res.New.Name, ID: res.New.ID},
		Stats: ReportStats{
			Entries:    res.Stats.Entries,
			Chunks:     res.Stats.Chunks,
			Records:    res.Stats.Records,
			Skipped:    res.Stats.Skipped,
			Failed:     res.Stats.Failed,
			DurationMs: res.Stats.Duration.Milliseconds(),
		},
		Records: records,
	}
}

// FormatResult formats a comparison result according to the specified format
func FormatResult(res *engine.Result, format OutputFormat) (string, error) {
	report := NewReport(res)
	switch format {
	case FormatJSON:
		return formatJSON(report)
	case FormatYAML:
		return formatYAML(report)
	case FormatTOML:
		return formatTOML(report)
	case FormatHuman:
		return formatHuman(report), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func formatTOML(v interface{}) (string, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func formatHuman(r *Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("mdiff v%s\n", version.Version))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Old: %s\n", revisionLabel(r.OldRevision)))
	b.WriteString(fmt.Sprintf("New: %s\n", revisionLabel(r.NewRevision)))
	b.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))

	if len(r.Records) == 0 {
		b.WriteString("No changed methods.\n\n")
	}
	for _, rec := range r.Records {
		b.WriteString(fmt.Sprintf("%-8s %s\n", rec.ChangeKind, rec.QualifiedName()))
		b.WriteString(fmt.Sprintf("         %s\n", rec.ClassFile))
		for _, m := range rec.Methods {
			line := fmt.Sprintf("         %s %s%s", changeMarker(m.Change), m.MethodName, m.Parameters)
			if m.StartLine > 0 {
				line += fmt.Sprintf("  (lines %d-%d)", m.StartLine, m.EndLine)
			}
			b.WriteString(line + "\n")
		}
		if len(rec.AddedLines) > 0 {
			b.WriteString(fmt.Sprintf("         + lines %s\n", formatRanges(rec.AddedLines)))
		}
		if len(rec.DeletedLines) > 0 {
			b.WriteString(fmt.Sprintf("         - lines %s\n", formatRanges(rec.DeletedLines)))
		}
		b.WriteString("\n")
	}

	s := r.Stats
	b.WriteString(fmt.Sprintf("%d records from %d entries in %d chunks (%d skipped, %d failed) in %dms",
		s.Records, s.Entries, s.Chunks, s.Skipped, s.Failed, s.DurationMs))
	return b.String()
}

func revisionLabel(rev ReportRevision) string {
	id := rev.ID
	if id == "" || id == rev.Name {
		return rev.Name
	}
	if len(id) > 12 && !strings.ContainsAny(id, `/\`) {
		id = id[:12]
	}
	return fmt.Sprintf("%s (%s)", rev.Name, id)
}

// changeMarker is "+" for a new method and "~" for a changed one.
func changeMarker(change string) string {
	if change == match.Changed.String() {
		return "~"
	}
	return "+"
}

// formatRanges renders ranges like "3-5, 9".
func formatRanges(ranges []record.LineRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		if r.Start == r.End {
			parts[i] = fmt.Sprintf("%d", r.Start)
		} else {
			parts[i] = fmt.Sprintf("%d-%d", r.Start, r.End)
		}
	}
	return strings.Join(parts, ", ")
}
