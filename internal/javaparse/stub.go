//go:build !cgo

package javaparse

import (
	"context"
	"log/slog"

	"mdiff/internal/unit"
)

// Parser is unavailable without CGO; every source parses as absent.
type Parser struct {
	logger *slog.Logger
}

// New creates a Java parser.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return false
}

// Parse always reports absent in non-CGO builds.
func (p *Parser) Parse(ctx context.Context, src []byte) (*unit.RevisionUnit, bool) {
	return nil, false
}
