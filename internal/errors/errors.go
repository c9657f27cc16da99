package errors

import (
	"context"
	goerrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidArgument indicates caller input failed validation before any I/O
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// RepositoryNotFound indicates the repository path is missing or not a work tree
	RepositoryNotFound ErrorCode = "REPOSITORY_NOT_FOUND"
	// RevisionNotFound indicates a branch or tag could not be resolved
	RevisionNotFound ErrorCode = "REVISION_NOT_FOUND"
	// FileNotFound indicates a path is absent at the requested revision
	FileNotFound ErrorCode = "FILE_NOT_FOUND"
	// GitUnavailable indicates the git binary could not be executed
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// SyncFailed indicates a branch could not be synchronized with its remote
	SyncFailed ErrorCode = "SYNC_FAILED"
	// Timeout indicates an operation exceeded its deadline
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// Error is the error type returned across package boundaries.
// It carries a stable code so callers can branch on "could not compute"
// versus ordinary outcomes.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new Error. Suggested fixes default to the ones registered
// for the code.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithFixes replaces the suggested fixes
func (e *Error) WithFixes(fixes ...FixAction) *Error {
	e.SuggestedFixes = fixes
	return e
}

// Wrap returns err unchanged when it already carries a code and wraps it with
// code otherwise. Context errors map to Timeout.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if goerrors.As(err, &e) {
		return err
	}
	if goerrors.Is(err, context.DeadlineExceeded) || goerrors.Is(err, context.Canceled) {
		code = Timeout
	}
	return New(code, message, err)
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if goerrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RepositoryNotFound: {
		{
			Type:        RunCommand,
			Command:     "git -C <repo> rev-parse --is-inside-work-tree",
			Safe:        true,
			Description: "Verify the repository path points at a git work tree",
		},
	},
	RevisionNotFound: {
		{
			Type:        RunCommand,
			Command:     "git fetch --all --tags",
			Safe:        true,
			Description: "Fetch remote branches and tags",
		},
	},
	GitUnavailable: {
		{
			Type:        RunCommand,
			Command:     "git --version",
			Safe:        true,
			Description: "Check that git is installed and on PATH",
		},
	},
	SyncFailed: {
		{
			Type:        RunCommand,
			Command:     "mdiff branches --no-sync",
			Safe:        true,
			Description: "Compare local branches without pulling",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
