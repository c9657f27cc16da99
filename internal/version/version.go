// Package version holds build-time version information for mdiff.
package version

import "runtime/debug"

// Overridden at build time:
// go build -ldflags "-X mdiff/internal/version.Version=1.0.0 -X mdiff/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns "<version>" or "<version> (<short commit>)".
func Info() string {
	commit := Commit
	if commit == "unknown" {
		commit = vcsRevision()
	}
	if len(commit) > 7 {
		return Version + " (" + commit[:7] + ")"
	}
	return Version
}

// Full returns multi-line version information.
func Full() string {
	return "mdiff version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

// vcsRevision falls back to the revision stamped by the go toolchain.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
