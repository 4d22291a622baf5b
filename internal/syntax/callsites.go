package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ExtractCallSites walks a tree-sitter tree emitting one CallSite per call
// expression found, grounded on spec §4.1's call-site extraction
// sub-operation: member expressions a.b.c() yield the trailing identifier
// c, optional-chaining "?." is stripped, and new X()/new X<T>() yields
// calleeSymbol = X.
//
// callerEntity is recomputed as the walk descends into entity bodies so
// each call site can be attributed to its enclosing function/method; it is
// empty for calls made at file (top) level.
func ExtractCallSites(root *sitter.Node, callerFile string, content []byte) []CallSite {
	var sites []CallSite

	var walk func(n *sitter.Node, enclosing string)
	walk = func(n *sitter.Node, enclosing string) {
		switch n.Type() {
		case "function_declaration", "method_declaration", "function_definition", "method_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				enclosing = text(nameNode, content)
			}
		case "call_expression":
			if callee := calleeSymbol(n, content); callee != "" {
				line, _ := lineOf(n)
				sites = append(sites, CallSite{
					CalleeSymbol: callee, CallerFile: callerFile, CallerEntity: enclosing, Line: line,
				})
			}
		case "new_expression", "object_creation_expression":
			if callee := newExpressionSymbol(n, content); callee != "" {
				line, _ := lineOf(n)
				sites = append(sites, CallSite{
					CalleeSymbol: callee, CallerFile: callerFile, CallerEntity: enclosing, Line: line,
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), enclosing)
		}
	}
	walk(root, "")
	return sites
}

// calleeSymbol resolves a call_expression's callee to its trailing
// identifier, unwrapping member_expression / field_expression /
// selector_expression chains and stripping an optional-chaining "?.".
func calleeSymbol(call *sitter.Node, content []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return trailingIdentifier(fn, content)
}

func newExpressionSymbol(n *sitter.Node, content []byte) string {
	ctor := n.ChildByFieldName("constructor")
	if ctor == nil {
		ctor = n.ChildByFieldName("type")
	}
	if ctor == nil {
		return ""
	}
	name := trailingIdentifier(ctor, content)
	// Generic instantiation new X<T>() parses the type argument as a
	// sibling or as part of a generic_type node; trailingIdentifier already
	// walks to the base identifier so nothing further is needed here.
	return name
}

func trailingIdentifier(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case "identifier", "type_identifier", "field_identifier":
		return text(n, content)
	case "member_expression", "field_expression", "selector_expression":
		prop := n.ChildByFieldName("property")
		if prop == nil {
			prop = n.ChildByFieldName("field")
		}
		if prop != nil {
			return trailingIdentifier(prop, content)
		}
	case "generic_type":
		if base := n.ChildByFieldName("type"); base != nil {
			return trailingIdentifier(base, content)
		}
	}
	raw := text(n, content)
	raw = strings.TrimPrefix(raw, "?.")
	if idx := strings.LastIndexAny(raw, ".?"); idx >= 0 {
		raw = raw[idx+1:]
	}
	raw = strings.TrimPrefix(raw, "?.")
	return strings.TrimSpace(raw)
}
