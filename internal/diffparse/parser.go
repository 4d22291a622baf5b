// Package diffparse turns a VcsProbe name-status listing into a structural
// diff of entities, grounded on spec §4.6 and on the line-oriented
// git-scanner shape it follows
// (bufio.Scanner over subprocess output, accumulate-then-emit).
package diffparse

import (
	"bufio"
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rpg/internal/graph"
	"rpg/internal/syntax"
	"rpg/internal/vcsprobe"
)

// maxConcurrentFileProbes bounds how many per-file VCS/Syntax Probe
// round-trips run at once during Parse, per spec §5's optional worker pool.
const maxConcurrentFileProbes = 8

// ChangedEntity is one entity-level change discovered by the parser.
type ChangedEntity struct {
	ID            string
	EntityType    graph.EntityKind
	EntityName    string
	QualifiedName string
	FilePath      string
	StartLine     int
	EndLine       int
	SourceCode    string
	// Imports is populated only on the file-level entity (EntityType ==
	// graph.KindFile), carrying the Syntax Probe's import list so the
	// Evolver can resolve dependency edges on insertion.
	Imports []syntax.ImportRecord
}

// ModifiedPair is a before/after pair of the same logical entity.
type ModifiedPair struct {
	Old ChangedEntity
	New ChangedEntity
}

// DiffResult is the structural diff the Evolver consumes.
type DiffResult struct {
	Insertions    []ChangedEntity
	Deletions     []ChangedEntity
	Modifications []ModifiedPair
}

// nameStatusLine is one parsed line of `git diff --name-status` output.
type nameStatusLine struct {
	status  byte // 'A', 'D', 'M', 'R', 'C'
	oldPath string
	newPath string
}

// parseNameStatus parses raw name-status text per spec §4.6 step 1:
// "<STATUS>\t<path>" or "R<score>\t<old>\t<new>" / "C<score>\t<old>\t<new>".
// Whitespace-only and malformed lines are skipped.
func parseNameStatus(raw string) []nameStatusLine {
	var out []nameStatusLine
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		switch status[0] {
		case 'R', 'C':
			if len(fields) < 3 {
				continue
			}
			out = append(out, nameStatusLine{status: status[0], oldPath: fields[1], newPath: fields[2]})
		case 'A', 'D', 'M':
			out = append(out, nameStatusLine{status: status[0], oldPath: fields[1], newPath: fields[1]})
		default:
			continue
		}
	}
	return out
}

// changedFile is one path-level change resolved from name-status lines per
// spec §4.6 step 2: a rename is (D old) + (A new); a copy is (A new) only.
type changedFile struct {
	status byte // 'A', 'D', 'M'
	path   string
}

func resolveChangedFiles(lines []nameStatusLine) []changedFile {
	var out []changedFile
	for _, l := range lines {
		switch l.status {
		case 'R':
			out = append(out, changedFile{status: 'D', path: l.oldPath})
			out = append(out, changedFile{status: 'A', path: l.newPath})
		case 'C':
			out = append(out, changedFile{status: 'A', path: l.newPath})
		default:
			out = append(out, changedFile{status: l.status, path: l.oldPath})
		}
	}
	return out
}

// Parser drives a VcsProbe and the Syntax Probe to produce a DiffResult
// for a commit range.
type Parser struct {
	vcs   vcsprobe.Probe
	probe *syntax.Probe
}

// NewParser constructs a Parser over the given VcsProbe and Syntax Probe.
func NewParser(vcs vcsprobe.Probe, probe *syntax.Probe) *Parser {
	return &Parser{vcs: vcs, probe: probe}
}

// Parse computes the structural diff for commitRange against repoPath.
func (p *Parser) Parse(ctx context.Context, repoPath, commitRange string) (DiffResult, error) {
	raw, err := p.vcs.NameStatus(ctx, repoPath, commitRange)
	if err != nil {
		return DiffResult{}, err
	}

	before, after := splitRange(commitRange)
	files := resolveChangedFiles(parseNameStatus(raw))

	var (
		mu     sync.Mutex
		result DiffResult
	)
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentFileProbes)

	for _, f := range files {
		f := f
		if syntax.LanguageForPath(f.path) == syntax.LangUnknown {
			continue
		}

		group.Go(func() error {
			switch f.status {
			case 'A':
				ins := p.entitiesAtRevision(gctx, repoPath, after, f.path, true)
				mu.Lock()
				result.Insertions = append(result.Insertions, ins...)
				mu.Unlock()
			case 'D':
				del := p.entitiesAtRevision(gctx, repoPath, before, f.path, true)
				mu.Lock()
				result.Deletions = append(result.Deletions, del...)
				mu.Unlock()
			case 'M':
				oldEntities := p.entitiesAtRevision(gctx, repoPath, before, f.path, false)
				newEntities := p.entitiesAtRevision(gctx, repoPath, after, f.path, false)
				ins, del, mod := pairModifiedEntities(oldEntities, newEntities)
				// The file-level entity itself is never split between
				// insertion/deletion for a pure modification: it persists.
				mod = append(mod, ModifiedPair{
					Old: fileEntity(f.path, nil),
					New: fileEntity(f.path, nil),
				})
				mu.Lock()
				result.Insertions = append(result.Insertions, ins...)
				result.Deletions = append(result.Deletions, del...)
				result.Modifications = append(result.Modifications, mod...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return DiffResult{}, err
	}
	return result, nil
}

func fileEntity(path string, imports []syntax.ImportRecord) ChangedEntity {
	return ChangedEntity{
		ID:            path + ":file:" + path,
		EntityType:    graph.KindFile,
		EntityName:    path,
		QualifiedName: path,
		FilePath:      path,
		Imports:       imports,
	}
}

// entitiesAtRevision probes path's content at rev and converts the result
// to ChangedEntity values. includeFileEntity is false for M-file probes,
// since the modification path appends the file-level pair itself.
func (p *Parser) entitiesAtRevision(ctx context.Context, repoPath, rev, path string, includeFileEntity bool) []ChangedEntity {
	content, err := p.vcs.FileAtRevision(ctx, repoPath, rev, path)
	if err != nil || content == nil {
		return nil
	}
	res := p.probe.Parse(ctx, path, content)

	out := make([]ChangedEntity, 0, len(res.Entities)+1)
	if includeFileEntity {
		out = append(out, fileEntity(path, res.Imports))
	}
	for _, e := range res.Entities {
		kind := normalizeKind(e.Kind)
		out = append(out, ChangedEntity{
			ID:            path + ":" + string(kind) + ":" + e.QualifiedName,
			EntityType:    kind,
			EntityName:    e.Name,
			QualifiedName: e.QualifiedName,
			FilePath:      path,
			StartLine:     e.StartLine,
			EndLine:       e.EndLine,
			SourceCode:    e.Source,
		})
	}
	return out
}

// normalizeKind maps the Syntax Probe's language-specific entity kinds
// (struct, interface) onto the data model's closed kind set of §3 (file,
// class, function, method, module): structs and interfaces are classes at
// the architectural level the graph cares about.
func normalizeKind(k syntax.EntityKind) graph.EntityKind {
	switch k {
	case syntax.EntityStruct, syntax.EntityInterface:
		return graph.KindClass
	default:
		return graph.EntityKind(k)
	}
}

// pairModifiedEntities implements spec §4.6 step 6: pair by (entityType,
// qualifiedName); unpaired-old -> deletion, unpaired-new -> insertion,
// paired with differing source -> modification.
func pairModifiedEntities(oldEntities, newEntities []ChangedEntity) (insertions, deletions []ChangedEntity, modifications []ModifiedPair) {
	oldByKey := make(map[string]ChangedEntity, len(oldEntities))
	for _, e := range oldEntities {
		oldByKey[pairKey(e)] = e
	}
	newByKey := make(map[string]ChangedEntity, len(newEntities))
	for _, e := range newEntities {
		newByKey[pairKey(e)] = e
	}

	for key, oldE := range oldByKey {
		newE, ok := newByKey[key]
		if !ok {
			deletions = append(deletions, oldE)
			continue
		}
		if oldE.SourceCode != newE.SourceCode {
			modifications = append(modifications, ModifiedPair{Old: oldE, New: newE})
		}
	}
	for key, newE := range newByKey {
		if _, ok := oldByKey[key]; !ok {
			insertions = append(insertions, newE)
		}
	}
	return insertions, deletions, modifications
}

func pairKey(e ChangedEntity) string {
	return string(e.EntityType) + "\x00" + e.QualifiedName
}

// splitRange splits a "A..B" commit range into its endpoints. A bare
// revision (no "..") is treated as both before and after — callers
// resolving a single revision diff against its parent should pass an
// explicit "<rev>^..<rev>" range instead.
func splitRange(rng string) (before, after string) {
	if idx := strings.Index(rng, ".."); idx >= 0 {
		before = rng[:idx]
		after = rng[idx+2:]
		after = strings.TrimPrefix(after, ".")
		return before, after
	}
	return rng, rng
}
