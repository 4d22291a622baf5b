package vcsprobe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/rpgerr"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "-q", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\n"), 0o644))
	run("add", "a.go")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestGitProbe_HeadShaAndCurrentBranch(t *testing.T) {
	repo := initRepo(t)
	p := NewGitProbe()

	sha, err := p.HeadSha(context.Background(), repo)
	require.NoError(t, err)
	assert.Len(t, sha, 40)

	branch, err := p.CurrentBranch(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestGitProbe_NameStatus_SingleAdd(t *testing.T) {
	repo := initRepo(t)
	p := NewGitProbe()

	require.NoError(t, os.WriteFile(filepath.Join(repo, "b.go"), []byte("package main\n"), 0o644))
	cmd := exec.Command("git", "add", "b.go")
	cmd.Dir = repo
	require.NoError(t, cmd.Run())
	cmd = exec.Command("git", "commit", "-q", "-m", "add b")
	cmd.Dir = repo
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com", "GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
	require.NoError(t, cmd.Run())

	out, err := p.NameStatus(context.Background(), repo, "HEAD~1..HEAD")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "A\tb.go"))
}

func TestGitProbe_FileAtRevision_MissingPathYieldsNilNotError(t *testing.T) {
	repo := initRepo(t)
	p := NewGitProbe()

	sha, err := p.HeadSha(context.Background(), repo)
	require.NoError(t, err)

	content, err := p.FileAtRevision(context.Background(), repo, sha, "does-not-exist.go")
	require.NoError(t, err)
	assert.Nil(t, content)
}

func TestGitProbe_FileAtRevision_ExistingPath(t *testing.T) {
	repo := initRepo(t)
	p := NewGitProbe()

	sha, err := p.HeadSha(context.Background(), repo)
	require.NoError(t, err)

	content, err := p.FileAtRevision(context.Background(), repo, sha, "a.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(content))
}

func TestGitProbe_MergeBase(t *testing.T) {
	repo := initRepo(t)
	p := NewGitProbe()

	sha, err := p.HeadSha(context.Background(), repo)
	require.NoError(t, err)

	base, err := p.MergeBase(context.Background(), repo, sha, sha)
	require.NoError(t, err)
	assert.Equal(t, sha, base)
}

func TestGitProbe_NotARepo_ReturnsVcsError(t *testing.T) {
	dir := t.TempDir()
	p := NewGitProbe()

	_, err := p.HeadSha(context.Background(), dir)
	require.Error(t, err)
	var vcsErr *rpgerr.VcsError
	assert.ErrorAs(t, err, &vcsErr)
}
