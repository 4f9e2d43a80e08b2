// # internal/parser/parser.go
package parser

import (
	"errors"
	"fmt"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Parser struct {
	loader    *GrammarLoader
	analyzers map[string]Analyzer // language -> analyzer
}

// Analyzer runs a language frontend over a parsed tree and produces the
// per-file findings.
type Analyzer interface {
	Analyze(root *sitter.Node, source []byte, filePath string) (*FileReport, error)
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{
		loader:    loader,
		analyzers: make(map[string]Analyzer),
	}
}

func (p *Parser) RegisterAnalyzer(lang string, a Analyzer) {
	p.analyzers[lang] = a
}

// Supported reports whether a path maps to a registered language.
func (p *Parser) Supported(path string) bool {
	lang := detectLanguage(path)
	return lang != "" && p.analyzers[lang] != nil
}

func (p *Parser) AnalyzeFile(path string, content []byte) (*FileReport, error) {
	lang := detectLanguage(path)
	if lang == "" {
		return nil, errors.New("unsupported language")
	}

	grammar := p.loader.Language(lang)
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}
	defer tree.Close()

	analyzer := p.analyzers[lang]
	if analyzer == nil {
		return nil, fmt.Errorf("no analyzer for: %s", lang)
	}

	return analyzer.Analyze(tree.RootNode(), content, path)
}

func detectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return "python"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	default:
		return ""
	}
}
