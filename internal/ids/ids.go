// Package ids constructs and parses the canonical node identifiers used
// throughout the RPG, and resolves relative import specifiers against the
// graph's file-level nodes. See spec §6 "Canonical Node ID".
package ids

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// LowLevel builds the canonical ID for an implementation entity:
// "<filePath>:<entityType>:<entityName>[:<startLine>]".
//
// includeLine controls whether the optional start-line suffix is appended.
// Initial encoding may include it; evolution-produced IDs omit it so that
// line churn does not change identity.
func LowLevel(filePath, entityType, entityName string, startLine int, includeLine bool) string {
	base := fmt.Sprintf("%s:%s:%s", filePath, entityType, entityName)
	if includeLine && startLine > 0 {
		return fmt.Sprintf("%s:%d", base, startLine)
	}
	return base
}

// HighLevel builds the canonical ID for an architectural directory node:
// "<directoryPath>:dir".
func HighLevel(directoryPath string) string {
	return directoryPath + ":dir"
}

// Prefix returns the line-independent prefix of a low-level ID,
// "<filePath>:<entityType>:<entityName>", used by the Evolver's matching
// rule to locate a node whose ID carries a start-line suffix that the
// lookup key omits (or vice versa).
func Prefix(filePath, entityType, entityName string) string {
	return fmt.Sprintf("%s:%s:%s", filePath, entityType, entityName)
}

// SameEntity reports whether id and prefix name the same entity,
// tolerating an optional ":<line>" suffix on id.
func SameEntity(id, prefix string) bool {
	if id == prefix {
		return true
	}
	rest := strings.TrimPrefix(id, prefix+":")
	if rest == id {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}

// ResolveImport resolves a relative import specifier (e.g. "./b",
// "../pkg/util") against the directory of the importing file, trying each
// candidate extension in order and returning the first repo-relative path.
// A non-relative specifier (no leading "." ) is returned unresolved
// (nil, false) since it names a package, not a graph-local file.
func ResolveImport(importerFile, spec string, extensions []string) (string, bool) {
	if !strings.HasPrefix(spec, ".") {
		return "", false
	}
	dir := path.Dir(importerFile)
	joined := path.Clean(path.Join(dir, spec))
	return joined, true
}

// Candidates returns the repo-relative paths to probe for a resolved
// import target, one per extension (including the empty extension, which
// matches the joined path verbatim — e.g. when the import already names a
// file with its extension).
func Candidates(resolved string, extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if ext == "" {
			out = append(out, resolved)
			continue
		}
		out = append(out, resolved+ext)
	}
	return out
}
