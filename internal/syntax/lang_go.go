package syntax

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"rpg/internal/syntax/grammar"
)

// extractGo walks a Go AST, following the conventions of extractGoSymbols:
// node recognition is driven by grammar.NodeKindMap(grammar.Go) and
// grammar.ImportNodeKinds(grammar.Go) rather than a second hardcoded set of
// node-kind literals. A function_declaration yields an EntityFunction, a
// method_declaration yields an EntityMethod carrying its receiver, and a
// type_declaration (the map's "struct" entry) is refined to
// EntityInterface when its type_spec names an interface_type. Import paths
// come from import_declaration/import_spec.
func extractGo(root *sitter.Node, path string, content []byte) ([]Entity, []ImportRecord, []CallSite) {
	var entities []Entity
	var imports []ImportRecord
	kinds := grammar.NodeKindMap(grammar.Go)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch kinds[n.Type()] {
		case string(EntityFunction):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityFunction, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: goExported(name),
				})
			}
		case string(EntityMethod):
			nameNode := n.ChildByFieldName("name")
			recvNode := n.ChildByFieldName("receiver")
			if nameNode != nil && recvNode != nil {
				name := text(nameNode, content)
				receiver := receiverType(recvNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityMethod, Name: name, QualifiedName: qualify(receiver, name),
					StartLine: start, EndLine: end, Exported: goExported(name), Receiver: receiver,
				})
			}
		case string(EntityStruct):
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				typeNode := spec.ChildByFieldName("type")
				if nameNode == nil {
					continue
				}
				name := text(nameNode, content)
				kind := EntityStruct
				if typeNode != nil && typeNode.Type() == "interface_type" {
					kind = EntityInterface
				}
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: kind, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: goExported(name),
				})
			}
		}

		if grammar.IsImportNode(grammar.Go, n.Type()) {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "import_spec" {
					continue
				}
				if pathNode := spec.ChildByFieldName("path"); pathNode != nil {
					line, _ := lineOf(spec)
					imports = append(imports, ImportRecord{
						Module: trimQuotes(text(pathNode, content)),
						Kind:   ImportPlain,
						Line:   line,
					})
				}
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	_ = path
	return entities, imports, nil
}

// receiverType pulls the bare type name out of a Go method receiver, e.g.
// "(s *Store)" -> "Store".
func receiverType(recv *sitter.Node, content []byte) string {
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		t := text(typeNode, content)
		for len(t) > 0 && t[0] == '*' {
			t = t[1:]
		}
		return t
	}
	return fmt.Sprintf("%s", text(recv, content))
}
