package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rpg/internal/syntax/grammar"
)

// extractPython walks a Python AST. Node recognition is driven by
// grammar.NodeKindMap(grammar.Python) and grammar.ImportNodeKinds(grammar.Python):
// a class_definition yields EntityClass, a function_definition yields
// EntityFunction (refined to EntityMethod when nested directly under a
// class body), and import_statement/import_from_statement yield one
// ImportRecord per dotted_name child.
func extractPython(root *sitter.Node, path string, content []byte) ([]Entity, []ImportRecord, []CallSite) {
	var entities []Entity
	var imports []ImportRecord
	kinds := grammar.NodeKindMap(grammar.Python)

	var walk func(n *sitter.Node, enclosingClass string)
	walk = func(n *sitter.Node, enclosingClass string) {
		switch kinds[n.Type()] {
		case string(EntityClass):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityClass, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: !isDunderOrPrivate(name),
				})
				if body := n.ChildByFieldName("body"); body != nil {
					for i := 0; i < int(body.NamedChildCount()); i++ {
						walk(body.NamedChild(i), qualify(enclosingClass, name))
					}
				}
				return
			}
		case string(EntityFunction):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				kind := EntityFunction
				if enclosingClass != "" {
					kind = EntityMethod
				}
				entities = append(entities, Entity{
					Kind: kind, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: !isDunderOrPrivate(name), Receiver: enclosingClass,
				})
			}
			return
		}

		if grammar.IsImportNode(grammar.Python, n.Type()) {
			importKind := ImportPlain
			if n.Type() == "import_from_statement" {
				importKind = ImportFrom
			}
			line, _ := lineOf(n)
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "dotted_name" {
					imports = append(imports, ImportRecord{Module: text(child, content), Kind: importKind, Line: line})
				}
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

func isDunderOrPrivate(name string) bool {
	return len(name) > 0 && name[0] == '_'
}
