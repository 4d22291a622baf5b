package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rpg/internal/syntax/grammar"
)

// extractJava walks a Java AST. there is no established Java extractor to follow here, so
// node recognition is driven by grammar.NodeKindMap(grammar.Java) and
// grammar.ImportNodeKinds(grammar.Java) the same way the other four
// languages are, rather than introducing a one-off hardcoded switch.
func extractJava(root *sitter.Node, path string, content []byte) ([]Entity, []ImportRecord, []CallSite) {
	var entities []Entity
	var imports []ImportRecord
	kinds := grammar.NodeKindMap(grammar.Java)

	var walk func(n *sitter.Node, enclosingClass string)
	walk = func(n *sitter.Node, enclosingClass string) {
		switch kinds[n.Type()] {
		case string(EntityClass):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityClass, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: hasPublicModifier(n, content),
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
					StartLine: start, EndLine: end, Exported: hasPublicModifier(n, content),
				})
			}
			return
		case string(EntityMethod):
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := text(nameNode, content)
				start, end := lineOf(n)
				entities = append(entities, Entity{
					Kind: EntityMethod, Name: name, QualifiedName: qualify(enclosingClass, name),
					StartLine: start, EndLine: end, Exported: hasPublicModifier(n, content), Receiver: enclosingClass,
				})
			}
			return
		}

		if grammar.IsImportNode(grammar.Java, n.Type()) {
			line, _ := lineOf(n)
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
					imports = append(imports, ImportRecord{Module: text(child, content), Kind: ImportPlain, Line: line})
					break
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

func hasPublicModifier(n *sitter.Node, content []byte) bool {
	mods := n.ChildByFieldName("modifiers")
	if mods == nil {
		return false
	}
	return containsWord(text(mods, content), "public")
}

func containsWord(s, word string) bool {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] == word {
			before := i == 0 || !isIdentChar(s[i-1])
			after := i+len(word) == len(s) || !isIdentChar(s[i+len(word)])
			if before && after {
				return true
			}
		}
	}
	return false
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
