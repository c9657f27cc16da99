//go:build cgo

package javaparse

import (
	"context"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"mdiff/internal/unit"
)

// Parser parses Java compilation units with tree-sitter.
type Parser struct {
	logger *slog.Logger
}

// New creates a Java parser.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

// Parse builds a RevisionUnit from Java source. Sources declaring no class or
// interface are absent.
//
// A syntax error anywhere in the file also makes the whole unit absent, even
// when the error lies outside every method: tree-sitter's error recovery can
// move tokens between declarations, so no method of a damaged tree is keyed or
// fingerprinted. The record builder then skips the file as "no-class".
func (p *Parser) Parse(ctx context.Context, src []byte) (*unit.RevisionUnit, bool) {
	// sitter.Parser is not safe for concurrent use
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil || tree == nil {
		p.logger.Debug("Java parse failed", "error", err)
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, false
	}
	if root.HasError() {
		p.logger.Debug("Java source has syntax errors", "bytes", len(src))
		return nil, false
	}

	u := &unit.RevisionUnit{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			if u.Package == "" {
				u.Package = packageName(child, src)
			}
		case "class_declaration", "interface_declaration":
			if u.Primary == nil {
				u.Primary = typeShape(child, src)
			}
		}
	}

	if u.Primary == nil {
		return nil, false
	}
	return u, true
}

func packageName(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" || child.Type() == "scoped_identifier" {
			return render(child, src)
		}
	}
	return ""
}

func typeShape(node *sitter.Node, src []byte) *unit.TypeShape {
	shape := &unit.TypeShape{
		Interface: node.Type() == "interface_declaration",
	}
	if name := node.ChildByFieldName("name"); name != nil {
		shape.Name = text(name, src)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return shape
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration", "constructor_declaration":
			shape.Methods = append(shape.Methods, methodShape(member, src))
		}
	}
	return shape
}

func methodShape(node *sitter.Node, src []byte) unit.MethodShape {
	m := unit.MethodShape{
		Text:      render(node, src),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}
	if name := node.ChildByFieldName("name"); name != nil {
		m.Name = text(name, src)
	}

	var params []string
	if list := node.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			param := list.NamedChild(i)
			switch param.Type() {
			case "formal_parameter", "spread_parameter":
				params = append(params, render(param, src))
			}
		}
	}
	m.Params = bracketList(params)
	return m
}

// render joins the leaf tokens under node, dropping comments.
func render(node *sitter.Node, src []byte) string {
	var tokens []string
	collectTokens(node, src, &tokens)
	return joinTokens(tokens)
}

func collectTokens(node *sitter.Node, src []byte, tokens *[]string) {
	if isComment(node) {
		return
	}
	count := int(node.ChildCount())
	if count == 0 {
		*tokens = append(*tokens, text(node, src))
		return
	}
	for i := 0; i < count; i++ {
		if child := node.Child(i); child != nil {
			collectTokens(child, src, tokens)
		}
	}
}

func isComment(node *sitter.Node) bool {
	switch node.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
