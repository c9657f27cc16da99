package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("exit status 128")

	err := New(RevisionNotFound, "cannot resolve tag v1.2.0", cause)

	if err.Code != RevisionNotFound {
		t.Errorf("Code = %v, want %v", err.Code, RevisionNotFound)
	}
	if err.Message != "cannot resolve tag v1.2.0" {
		t.Errorf("Message = %q", err.Message)
	}
	if len(err.SuggestedFixes) == 0 {
		t.Error("expected default suggested fixes for RevisionNotFound")
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      GitUnavailable,
			message:   "git not found",
			cause:     errors.New("executable file not found in $PATH"),
			wantParts: []string{"GIT_UNAVAILABLE", "git not found", "executable file not found"},
		},
		{
			name:      "without cause",
			code:      InvalidArgument,
			message:   "new tag and old tag must differ",
			wantParts: []string{"INVALID_ARGUMENT", "new tag and old tag must differ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if New(Timeout, "timed out", nil).Unwrap() != nil {
		t.Error("Unwrap() without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("comparing: %w", New(RepositoryNotFound, "missing", nil))

	if got := CodeOf(wrapped); got != RepositoryNotFound {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, RepositoryNotFound)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if !IsCode(wrapped, RepositoryNotFound) {
		t.Error("IsCode should match wrapped code")
	}
	if IsCode(nil, InternalError) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestWithDetailsAndFixes(t *testing.T) {
	err := New(FileNotFound, "path absent", nil).
		WithDetails(map[string]string{"path": "A.java"}).
		WithFixes(FixAction{Type: OpenDocs, URL: "https://git-scm.com/docs/git-cat-file"})

	if err.Details == nil {
		t.Error("expected details to be set")
	}
	if len(err.SuggestedFixes) != 1 || err.SuggestedFixes[0].Type != OpenDocs {
		t.Errorf("SuggestedFixes = %+v", err.SuggestedFixes)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, InternalError, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}

	coded := New(RevisionNotFound, "no such tag", nil)
	if got := Wrap(coded, InternalError, "listing"); got != error(coded) {
		t.Errorf("coded errors pass through unchanged, got %v", got)
	}

	if got := CodeOf(Wrap(errors.New("exit status 1"), RepositoryNotFound, "opening")); got != RepositoryNotFound {
		t.Errorf("plain error code = %v", got)
	}
	if got := CodeOf(Wrap(context.DeadlineExceeded, InternalError, "listing")); got != Timeout {
		t.Errorf("deadline code = %v, want TIMEOUT", got)
	}
}
