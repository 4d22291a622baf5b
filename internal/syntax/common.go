package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func text(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(content)
}

func lineOf(n *sitter.Node) (start, end int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}

// goExported reports whether a Go identifier is exported (first rune
// uppercase), following the same approach as visibility detection in ast_treesitter.go.
func goExported(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r >= 'A' && r <= 'Z'
}

func hasExportAncestor(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "export_statement"
}

func qualify(enclosing, name string) string {
	if enclosing == "" {
		return name
	}
	return enclosing + "." + name
}
