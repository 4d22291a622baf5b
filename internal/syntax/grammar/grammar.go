// Package grammar wraps the per-language tree-sitter grammars behind one
// small contract, following the conventions of internal/world/ast_treesitter.go
// (one *sitter.Parser per language, language set once via SetLanguage).
package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Tag names one of the grammars this package can hand out.
type Tag string

const (
	Go         Tag = "go"
	Python     Tag = "python"
	Rust       Tag = "rust"
	JavaScript Tag = "javascript"
	TypeScript Tag = "typescript"
	Java       Tag = "java"
)

// Languages returns the sitter.Language for every supported Tag.
func Languages() map[Tag]*sitter.Language {
	return map[Tag]*sitter.Language{
		Go:         golang.GetLanguage(),
		Python:     python.GetLanguage(),
		Rust:       rust.GetLanguage(),
		JavaScript: javascript.GetLanguage(),
		TypeScript: typescript.GetLanguage(),
		Java:       java.GetLanguage(),
	}
}

// NodeKindMap returns, for each language, the mapping from a tree-sitter
// node kind to the EntityKind (spelled as a plain string to avoid an
// import-time dependency on internal/syntax) it represents. Only node
// kinds that denote an extractable entity appear; everything else is
// walked over without emitting anything.
func NodeKindMap(tag Tag) map[string]string {
	switch tag {
	case Go:
		return map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_declaration":     "struct",
		}
	case Python:
		return map[string]string{
			"function_definition": "function",
			"class_definition":    "class",
		}
	case Rust:
		return map[string]string{
			"function_item": "function",
			"struct_item":   "struct",
			"enum_item":     "struct",
			"impl_item":     "class",
			"trait_item":    "interface",
			"mod_item":      "module",
		}
	case JavaScript, TypeScript:
		return map[string]string{
			"function_declaration":  "function",
			"class_declaration":     "class",
			"method_definition":     "method",
			"interface_declaration": "interface",
		}
	case Java:
		return map[string]string{
			"class_declaration":     "class",
			"interface_declaration": "interface",
			"method_declaration":    "method",
		}
	default:
		return nil
	}
}

// IsImportNode reports whether nodeType is one of tag's ImportNodeKinds,
// the lookup extractByLanguage's per-language walkers use instead of
// hardcoding the same node-kind literals a second time.
func IsImportNode(tag Tag, nodeType string) bool {
	for _, k := range ImportNodeKinds(tag) {
		if k == nodeType {
			return true
		}
	}
	return false
}

// ImportNodeKinds returns the node kinds that carry a dependency reference
// for the given language, following the conventions of per-language import
// extraction (import_declaration/import_spec for Go, import_statement /
// import_from_statement for Python, use_declaration for Rust,
// import_statement for JS/TS).
func ImportNodeKinds(tag Tag) []string {
	switch tag {
	case Go:
		return []string{"import_declaration"}
	case Python:
		return []string{"import_statement", "import_from_statement"}
	case Rust:
		return []string{"use_declaration"}
	case JavaScript, TypeScript:
		return []string{"import_statement"}
	case Java:
		return []string{"import_declaration"}
	default:
		return nil
	}
}
