package diffparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/syntax"
)

func TestParseNameStatus_SingleAdd(t *testing.T) {
	lines := parseNameStatus("A\tsrc/new.ts\n")
	require.Len(t, lines, 1)
	assert.Equal(t, byte('A'), lines[0].status)
	assert.Equal(t, "src/new.ts", lines[0].oldPath)
}

func TestParseNameStatus_RenameSplit(t *testing.T) {
	files := resolveChangedFiles(parseNameStatus("R100\tsrc/old.ts\tsrc/new.ts\n"))
	require.Len(t, files, 2)
	assert.Equal(t, changedFile{status: 'D', path: "src/old.ts"}, files[0])
	assert.Equal(t, changedFile{status: 'A', path: "src/new.ts"}, files[1])
}

func TestParseNameStatus_Copy(t *testing.T) {
	files := resolveChangedFiles(parseNameStatus("C100\tsrc/a.ts\tsrc/b.ts\n"))
	require.Len(t, files, 1)
	assert.Equal(t, changedFile{status: 'A', path: "src/b.ts"}, files[0])
}

func TestParseNameStatus_SkipsBlankAndMalformedLines(t *testing.T) {
	lines := parseNameStatus("\n   \nA\tok.go\nbadline\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "ok.go", lines[0].oldPath)
}

// fakeVcs implements vcsprobe.Probe entirely in memory for parser tests.
type fakeVcs struct {
	nameStatus string
	files      map[string]map[string][]byte // rev -> path -> content
}

func (f *fakeVcs) HeadSha(context.Context, string) (string, error)          { return "deadbeef", nil }
func (f *fakeVcs) CurrentBranch(context.Context, string) (string, error)    { return "main", nil }
func (f *fakeVcs) DefaultBranch(context.Context, string) (string, error)    { return "main", nil }
func (f *fakeVcs) MergeBase(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (f *fakeVcs) NameStatus(context.Context, string, string) (string, error) {
	return f.nameStatus, nil
}
func (f *fakeVcs) FileAtRevision(_ context.Context, _ string, rev, path string) ([]byte, error) {
	byRev, ok := f.files[rev]
	if !ok {
		return nil, nil
	}
	content, ok := byRev[path]
	if !ok {
		return nil, nil
	}
	return content, nil
}

func TestParser_SingleAdd_YieldsInsertionWithCorrectPath(t *testing.T) {
	vcs := &fakeVcs{
		nameStatus: "A\tsrc/new.go\n",
		files: map[string]map[string][]byte{
			"B": {"src/new.go": []byte("package main\n\nfunc Foo() {}\n")},
		},
	}
	p := NewParser(vcs, syntax.NewProbe())
	result, err := p.Parse(context.Background(), "/repo", "A..B")
	require.NoError(t, err)

	var sawFile, sawFunc bool
	for _, ins := range result.Insertions {
		if ins.FilePath == "src/new.go" && ins.EntityType == "file" {
			sawFile = true
		}
		if ins.EntityName == "Foo" {
			sawFunc = true
		}
	}
	assert.True(t, sawFile, "expected a file-level insertion")
	assert.True(t, sawFunc, "expected function Foo insertion")
}

func TestParser_ModifiedFile_PairsEntitiesAndDetectsSourceChange(t *testing.T) {
	vcs := &fakeVcs{
		nameStatus: "M\tsrc/x.go\n",
		files: map[string]map[string][]byte{
			"A": {"src/x.go": []byte("package main\n\nfunc Foo() { return }\n")},
			"B": {"src/x.go": []byte("package main\n\nfunc Foo() { return 1 }\n")},
		},
	}
	p := NewParser(vcs, syntax.NewProbe())
	result, err := p.Parse(context.Background(), "/repo", "A..B")
	require.NoError(t, err)

	var sawFooMod bool
	for _, m := range result.Modifications {
		if m.Old.EntityName == "Foo" {
			sawFooMod = true
			assert.NotEqual(t, m.Old.SourceCode, m.New.SourceCode)
		}
	}
	assert.True(t, sawFooMod)
}

func TestParser_UnsupportedLanguageFile_Ignored(t *testing.T) {
	vcs := &fakeVcs{
		nameStatus: "A\tREADME.md\n",
		files:      map[string]map[string][]byte{"B": {"README.md": []byte("hello")}},
	}
	p := NewParser(vcs, syntax.NewProbe())
	result, err := p.Parse(context.Background(), "/repo", "A..B")
	require.NoError(t, err)
	assert.Empty(t, result.Insertions)
	assert.Empty(t, result.Deletions)
	assert.Empty(t, result.Modifications)
}
