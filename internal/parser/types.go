// # internal/parser/types.go
package parser

import (
	"time"

	"deadvar/internal/analysis"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// FileReport is the per-file analysis result handed to reporting.
type FileReport struct {
	Path       string
	Language   string
	Dialect    string
	Findings   []analysis.Finding
	Scopes     int
	Suppressed int // scopes exempted by an escape hatch
	ParsedAt   time.Time
}

func newFileReport(path, language, dialect string, tree *analysis.ScopeTree) *FileReport {
	return &FileReport{
		Path:       path,
		Language:   language,
		Dialect:    dialect,
		Findings:   tree.Analyze(),
		Scopes:     len(tree.Scopes),
		Suppressed: tree.SuppressedCount(),
		ParsedAt:   time.Now(),
	}
}

// nodeSpan converts a tree-sitter node position to a 1-based analysis span.
func nodeSpan(node *sitter.Node) analysis.Span {
	start := node.StartPosition()
	end := node.EndPosition()
	return analysis.Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}
