package syntax

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// fallbackPatterns follows the same shape as its internal/tools/codedom/elements.go:
// one regexp per entity kind, matched line-by-line. It trades accurate
// end-line tracking for the guarantee that it never fails and never needs
// a grammar.
var fallbackPatterns = map[Language]map[EntityKind]*regexp.Regexp{
	LangGo: {
		EntityFunction:  regexp.MustCompile(`^func\s+(\w+)\s*\(`),
		EntityMethod:    regexp.MustCompile(`^func\s+\([^)]+\)\s+(\w+)\s*\(`),
		EntityStruct:    regexp.MustCompile(`^type\s+(\w+)\s+struct`),
		EntityInterface: regexp.MustCompile(`^type\s+(\w+)\s+interface`),
	},
	LangPython: {
		EntityFunction: regexp.MustCompile(`^def\s+(\w+)\s*\(`),
		EntityClass:    regexp.MustCompile(`^class\s+(\w+)`),
		EntityMethod:   regexp.MustCompile(`^\s+def\s+(\w+)\s*\(`),
	},
	LangJavaScript: {
		EntityFunction: regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`),
		EntityClass:    regexp.MustCompile(`^(?:export\s+)?class\s+(\w+)`),
		EntityMethod:   regexp.MustCompile(`^\s+(?:async\s+)?(\w+)\s*\([^)]*\)\s*\{`),
	},
	LangTypeScript: {
		EntityFunction: regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`),
		EntityClass:    regexp.MustCompile(`^(?:export\s+)?class\s+(\w+)`),
		EntityMethod:   regexp.MustCompile(`^\s+(?:async\s+)?(\w+)\s*\([^)]*\)\s*\{`),
	},
	LangJava: {
		EntityClass:     regexp.MustCompile(`^(?:public\s+)?(?:abstract\s+)?class\s+(\w+)`),
		EntityInterface: regexp.MustCompile(`^(?:public\s+)?interface\s+(\w+)`),
		EntityMethod:    regexp.MustCompile(`^\s+(?:public|private|protected)?\s*(?:static\s+)?(?:\w+\s+)+(\w+)\s*\(`),
	},
	LangRust: {
		EntityFunction:  regexp.MustCompile(`^(?:pub\s+)?fn\s+(\w+)`),
		EntityStruct:    regexp.MustCompile(`^(?:pub\s+)?struct\s+(\w+)`),
		EntityInterface: regexp.MustCompile(`^(?:pub\s+)?trait\s+(\w+)`),
	},
}

var fallbackImportPatterns = map[Language]*regexp.Regexp{
	LangGo:         regexp.MustCompile(`^\s*"([^"]+)"\s*$`),
	LangPython:     regexp.MustCompile(`^(?:import|from)\s+([\w\.]+)`),
	LangJavaScript: regexp.MustCompile(`from\s+['"]([^'"]+)['"]`),
	LangTypeScript: regexp.MustCompile(`from\s+['"]([^'"]+)['"]`),
	LangJava:       regexp.MustCompile(`^import\s+(?:static\s+)?([\w\.]+)\s*;`),
	LangRust:       regexp.MustCompile(`^use\s+([\w:]+)`),
}

// fallbackParse scans the file line-by-line with the regex table above.
// Used when a language has no grammar wired in, or tree-sitter failed.
func fallbackParse(lang Language, path string, content []byte) Result {
	patterns := fallbackPatterns[lang]
	importPattern := fallbackImportPatterns[lang]

	var entities []Entity
	var imports []ImportRecord

	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		for kind, pattern := range patterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				entities = append(entities, Entity{
					Kind: kind, Name: m[1], QualifiedName: m[1],
					StartLine: lineNum, EndLine: lineNum,
					Source: strings.TrimSpace(line), Exported: exportedFallback(lang, m[1], line),
				})
			}
		}
		if importPattern != nil {
			if m := importPattern.FindStringSubmatch(line); m != nil {
				imports = append(imports, ImportRecord{Module: m[1], Kind: ImportPlain, Line: lineNum})
			}
		}
	}
	return Result{Language: lang, Entities: entities, Imports: imports}
}

func exportedFallback(lang Language, name, line string) bool {
	switch lang {
	case LangGo:
		return goExported(name)
	case LangPython:
		return !isDunderOrPrivate(name)
	case LangJavaScript, LangTypeScript:
		return strings.Contains(line, "export")
	case LangJava:
		return strings.Contains(line, "public")
	case LangRust:
		return strings.Contains(line, "pub ")
	default:
		return false
	}
}
