// Package syntax extracts entities, imports, and call sites from source
// files using tree-sitter grammars, falling back to regex heuristics when a
// grammar is unavailable or a parse fails. A parse never returns an error to
// its caller for a malformed or unsupported file; it returns an empty
// Result instead, so the Diff Parser and Evolver can treat every file
// uniformly. See spec §4.1 "Syntax Probe".
package syntax

// Language identifies one of the grammars the probe understands.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangUnknown    Language = "unknown"
)

// LanguageForPath maps a file's extension to the Language the probe should
// use to parse it. Unrecognized extensions map to LangUnknown, for which
// the probe skips both tree-sitter and the regex fallback and returns an
// empty Result.
func LanguageForPath(path string) Language {
	ext := extOf(path)
	switch ext {
	case ".go":
		return LangGo
	case ".py":
		return LangPython
	case ".rs":
		return LangRust
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts", ".tsx":
		return LangTypeScript
	case ".java":
		return LangJava
	default:
		return LangUnknown
	}
}

func extOf(path string) string {
	dot := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			break
		}
		if path[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return ""
	}
	return path[dot:]
}

// EntityKind mirrors graph.EntityKind; kept as an independent string type so
// this package has no import-time dependency on internal/graph. Callers
// convert with graph.EntityKind(e.Kind) at the boundary.
type EntityKind string

const (
	EntityFunction  EntityKind = "function"
	EntityMethod    EntityKind = "method"
	EntityClass     EntityKind = "class"
	EntityStruct    EntityKind = "struct"
	EntityInterface EntityKind = "interface"
	EntityModule    EntityKind = "module"
)

// Entity is one syntactic unit extracted from a source file.
type Entity struct {
	Kind          EntityKind
	Name          string
	QualifiedName string
	StartLine     int
	EndLine       int
	Source        string
	Exported      bool
	Receiver      string // non-empty for EntityMethod: the receiver/owning type name
}

// ImportKind distinguishes the syntactic form an import statement took.
type ImportKind string

const (
	ImportPlain   ImportKind = "import"
	ImportFrom    ImportKind = "from"
	ImportRequire ImportKind = "require"
)

// ImportRecord is one dependency reference discovered in a file, destined
// to become a DependencyEdge once resolved against the graph's file-level
// nodes. See spec §4.1 "dependency edge injection".
type ImportRecord struct {
	Module string
	Kind   ImportKind
	Line   int
}

// CallSite is one call expression discovered in a file, used by the
// optional call-site extraction sub-operation to seed DepCall edges.
type CallSite struct {
	CalleeSymbol string
	CallerFile   string
	CallerEntity string
	Line         int
}

// Result is everything the probe extracted from a single file. A failed or
// unsupported parse yields a Result with only Language set, never an error.
type Result struct {
	Language Language
	Entities []Entity
	Imports  []ImportRecord
	Calls    []CallSite
}
