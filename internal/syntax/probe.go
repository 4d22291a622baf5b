package syntax

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"rpg/internal/syntax/grammar"
)

// Probe extracts entities, imports, and call sites from source files. It
// pools one *sitter.Parser per language behind a mutex, mirroring
// the TreeSitterParser (one parser per language, reused across
// calls rather than allocated per file).
type Probe struct {
	mu      sync.Mutex
	parsers map[grammar.Tag]*sitter.Parser
}

// NewProbe constructs a Probe with one tree-sitter parser per supported
// grammar, ready for concurrent use.
func NewProbe() *Probe {
	p := &Probe{parsers: make(map[grammar.Tag]*sitter.Parser)}
	for tag, lang := range grammar.Languages() {
		sp := sitter.NewParser()
		sp.SetLanguage(lang)
		p.parsers[tag] = sp
	}
	return p
}

// Close releases resources held by the pooled parsers.
func (p *Probe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sp := range p.parsers {
		sp.Close()
	}
}

// Parse extracts a Result from the given file content. It never returns an
// error: an unsupported language, or a tree-sitter failure, falls back to
// the regex heuristics in fallback.go, and if those yield nothing the
// caller gets an empty Result with Language set.
func (p *Probe) Parse(ctx context.Context, path string, content []byte) Result {
	lang := LanguageForPath(path)
	res := Result{Language: lang}
	if lang == LangUnknown {
		return res
	}

	tag, ok := tagFor(lang)
	if !ok {
		return fallbackParse(lang, path, content)
	}

	p.mu.Lock()
	sp := p.parsers[tag]
	tree, err := parseTree(ctx, sp, content)
	p.mu.Unlock()
	if err != nil || tree == nil {
		return fallbackParse(lang, path, content)
	}
	defer tree.Close()

	root := tree.RootNode()
	entities, imports, _ := extractByLanguage(lang, root, path, content)
	lines := strings.Split(string(content), "\n")
	for i := range entities {
		if s, e := entities[i].StartLine, entities[i].EndLine; entities[i].Source == "" && s >= 1 && s <= e && e <= len(lines) {
			entities[i].Source = strings.Join(lines[s-1:e], "\n")
		}
	}
	if len(entities) == 0 && len(imports) == 0 {
		fb := fallbackParse(lang, path, content)
		if len(fb.Entities) > 0 || len(fb.Imports) > 0 {
			return fb
		}
	}
	calls := ExtractCallSites(root, path, content)
	return Result{Language: lang, Entities: entities, Imports: imports, Calls: calls}
}

func parseTree(ctx context.Context, sp *sitter.Parser, content []byte) (*sitter.Tree, error) {
	// ParseCtx panics on malformed encodings in rare cases upstream; guard
	// with a recover so one bad file never takes down a batch run.
	var tree *sitter.Tree
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				tree, err = nil, errParsePanic
			}
		}()
		tree, err = sp.ParseCtx(ctx, nil, content)
	}()
	return tree, err
}

func tagFor(lang Language) (grammar.Tag, bool) {
	switch lang {
	case LangGo:
		return grammar.Go, true
	case LangPython:
		return grammar.Python, true
	case LangRust:
		return grammar.Rust, true
	case LangJavaScript:
		return grammar.JavaScript, true
	case LangTypeScript:
		return grammar.TypeScript, true
	case LangJava:
		return grammar.Java, true
	default:
		return "", false
	}
}

func extractByLanguage(lang Language, root *sitter.Node, path string, content []byte) ([]Entity, []ImportRecord, []CallSite) {
	switch lang {
	case LangGo:
		return extractGo(root, path, content)
	case LangPython:
		return extractPython(root, path, content)
	case LangRust:
		return extractRust(root, path, content)
	case LangJavaScript, LangTypeScript:
		return extractJSLike(root, path, content)
	case LangJava:
		return extractJava(root, path, content)
	default:
		return nil, nil, nil
	}
}

// errParseInternal is never exported; it exists only so parseTree can
// report a recovered panic without leaking a parse error outside
// this package (spec §4.1: parse failures never throw to the caller).
type errParseInternal struct{ msg string }

func (e *errParseInternal) Error() string { return e.msg }

var errParsePanic = &errParseInternal{msg: "tree-sitter parser panicked"}
