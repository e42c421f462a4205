// Package parser builds opaque syntax-tree handles for analysis
// techniques using tree-sitter. The engine passes handles through
// unchanged; techniques that want structural analysis assert the handle
// back to *sitter.Node.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported source language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangUnknown    Language = "unknown"
)

// DetectLanguage maps a file path to a Language by extension.
func DetectLanguage(relPath string) Language {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".go":
		return LangGo
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".py":
		return LangPython
	default:
		return LangUnknown
	}
}

func getLanguage(lang Language) *sitter.Language {
	switch lang {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	default:
		return nil
	}
}

// Build parses content and returns the tree's root node, or nil when the
// language is unsupported or parsing fails. A fresh parser is created per
// call because tree-sitter parsers are not safe for concurrent use and
// Build is invoked from pool workers.
func Build(content, relPath string) any {
	tsLang := getLanguage(DetectLanguage(relPath))
	if tsLang == nil {
		return nil
	}

	p := sitter.NewParser()
	p.SetLanguage(tsLang)

	tree, err := p.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil || tree == nil {
		return nil
	}

	return tree.RootNode()
}
