package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rpg/internal/syntax/grammar"
)

// extractJSLike walks a JavaScript/TypeScript AST. Node recognition for
// class_declaration -> EntityClass, function_declaration -> EntityFunction,
// interface_declaration -> EntityInterface, and method_definition ->
// EntityMethod is driven by grammar.NodeKindMap(grammar.JavaScript); a
// lexical_declaration/variable_declaration whose variable_declarator value
// is an arrow_function/function/function_expression has no single AST node
// kind to map from, so it stays a dedicated case (spec §4.1: "Arrow/lambda
// functions bound to a named declarator adopt the declarator's name").
// import_statement, recognized via grammar.ImportNodeKinds, yields one
// ImportRecord per "source" field.
func extractJSLike(root *sitter.Node, path string, content []byte) ([]Entity, []ImportRecord, []CallSite) {
	var entities []Entity
	var imports []ImportRecord
	kinds := grammar.NodeKindMap(grammar.JavaScript)

	var walk func(n *sitter.Node, enclosingClass string)
	walk = func(n *sitter.Node, enclosingClass string) {
		switch kinds[n.Type()] {
		case string(EntityClass):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityClass, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: hasExportAncestor(n),
				})
				if body := n.ChildByFieldName("body"); body != nil {
					for i := 0; i < int(body.NamedChildCount()); i++ {
						walk(body.NamedChild(i), name)
					}
				}
				return
			}
		case string(EntityInterface):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityInterface, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: hasExportAncestor(n),
				})
			}
			return
		case string(EntityFunction):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityFunction, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: hasExportAncestor(n),
				})
			}
			return
		case string(EntityMethod):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityMethod, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: enclosingClass != "", Receiver: enclosingClass,
				})
			}
			return
		}

		switch n.Type() {
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				decl := n.NamedChild(i)
				if decl.Type() != "variable_declarator" {
					continue
				}
				nameNode := decl.ChildByFieldName("name")
				valueNode := decl.ChildByFieldName("value")
				if nameNode == nil || valueNode == nil {
					continue
				}
				vt := valueNode.Type()
				if vt != "arrow_function" && vt != "function" && vt != "function_expression" {
					continue
				}
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityFunction, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: hasExportAncestor(n),
				})
			}
			return
		}

		if grammar.IsImportNode(grammar.JavaScript, n.Type()) {
			if sourceNode := n.ChildByFieldName("source"); sourceNode != nil {
				line, _ := lineOf(n)
				imports = append(imports, ImportRecord{
					Module: trimQuotes(text(sourceNode, content)),
					Kind:   ImportPlain,
					Line:   line,
				})
			}
			return
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), enclosingClass)
		}
	}
	walk(root, "")
	_ = path
	return entities, imports, nil
}
