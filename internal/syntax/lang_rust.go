package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"rpg/internal/syntax/grammar"
)

// extractRust walks a Rust AST, driven by grammar.NodeKindMap(grammar.Rust)
// and grammar.ImportNodeKinds(grammar.Rust): function_item ->
// EntityFunction, struct_item/enum_item -> EntityStruct, impl_item ->
// EntityClass named after the implementing type, trait_item ->
// EntityInterface, mod_item -> EntityModule, use_declaration -> one
// ImportRecord keyed by the leading crate/path segment.
func extractRust(root *sitter.Node, path string, content []byte) ([]Entity, []ImportRecord, []CallSite) {
	var entities []Entity
	var imports []ImportRecord
	kinds := grammar.NodeKindMap(grammar.Rust)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch kinds[n.Type()] {
		case string(EntityFunction):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityFunction, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: hasPubModifier(n, content),
				})
			}
		case string(EntityStruct):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityStruct, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: hasPubModifier(n, content),
				})
			}
		case string(EntityClass):
			if typeNode := n.ChildByFieldName("type"); typeNode != nil {
				name := text(typeNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityClass, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: hasPubModifier(n, content),
				})
			}
		case string(EntityInterface):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityInterface, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: hasPubModifier(n, content),
				})
			}
		case string(EntityModule):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityModule, Name: name, QualifiedName: name,
					StartLine: start, EndLine: end, Exported: hasPubModifier(n, content),
				})
			}
		}

		if grammar.IsImportNode(grammar.Rust, n.Type()) {
			if argNode := n.ChildByFieldName("argument"); argNode != nil {
				usePath := text(argNode, content)
				parts := strings.Split(usePath, "::")
				if len(parts) > 0 && parts[0] != "" {
					line, _ := lineOf(n)
					imports = append(imports, ImportRecord{Module: parts[0], Kind: ImportPlain, Line: line})
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

func hasPubModifier(n *sitter.Node, content []byte) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "visibility_modifier" {
			return strings.HasPrefix(text(child, content), "pub")
		}
	}
	return false
}
