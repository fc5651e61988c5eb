// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClonedRepo creates an origin repo with one commit and a clone of it.
func newClonedRepo(t *testing.T) (origin, clone string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)

	dir := t.TempDir()
	origin = filepath.Join(dir, "origin")
	clone = filepath.Join(dir, "clone")

	git(t, dir, "init", "-q", "-b", "main", origin)
	commitFile(t, origin, "README.md", "# test\n")
	git(t, dir, "clone", "-q", origin, clone)
	return origin, clone
}

func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	git(t, dir, "add", name)
	git(t, dir, "commit", "-q", "-m", "update "+name)
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, stderr, err := Repo{Path: dir}.run(args...)
	require.NoError(t, err, "git %v: %s", args, stderr)
	return out
}

func TestRepoResolveRefs(t *testing.T) {
	origin, clone := newClonedRepo(t)
	repo := Repo{Path: clone}

	require.NoError(t, repo.Fetch())
	head, err := repo.ResolveRef(refHead)
	require.NoError(t, err)
	upstream, err := repo.ResolveRef(refUpstream)
	require.NoError(t, err)
	assert.Equal(t, git(t, origin, "rev-parse", "HEAD"), head)
	assert.Equal(t, head, upstream)

	base, err := repo.MergeBase(refHead, refUpstream)
	require.NoError(t, err)
	assert.Equal(t, head, base)
}

func TestRepoNoUpstream(t *testing.T) {
	origin, _ := newClonedRepo(t)

	_, err := Repo{Path: origin}.ResolveRef(refUpstream)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.ErrorIs(t, err, ErrNoUpstream)
	assert.Equal(t, "git rev-parse --verify HEAD@{upstream}", qe.Command)
	assert.Contains(t, qe.Output, "no upstream configured")
}

func TestRepoFetchFailure(t *testing.T) {
	origin, clone := newClonedRepo(t)
	require.NoError(t, os.RemoveAll(origin))

	err := Repo{Path: clone}.Fetch()
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "git fetch", qe.Command)
	assert.NotEmpty(t, qe.Output)
}

func TestCheckerAgainstGit(t *testing.T) {
	origin, clone := newClonedRepo(t)
	c := &Checker{VCS: Repo{Path: clone}}

	st, err := c.CheckStatus()
	require.NoError(t, err)
	assert.Equal(t, UpToDate, st.State)

	commitFile(t, origin, "a.txt", "a\n")
	o := c.SyncIfBehind()
	require.Equal(t, Synced, o.Kind, "%v", o.Err)
	assert.True(t, o.Changed)
	assert.Equal(t, git(t, origin, "rev-parse", "HEAD"), o.Head)

	commitFile(t, origin, "b.txt", "b\n")
	commitFile(t, clone, "c.txt", "c\n")
	localHead := git(t, clone, "rev-parse", "HEAD")
	o = c.SyncIfBehind()
	assert.Equal(t, Skipped, o.Kind)
	assert.Equal(t, Diverged, o.Status.State)
	assert.Equal(t, localHead, git(t, clone, "rev-parse", "HEAD"))
}

func TestCheckerPullFailure(t *testing.T) {
	origin, clone := newClonedRepo(t)
	commitFile(t, origin, "README.md", "# upstream\n")
	require.NoError(t, os.WriteFile(filepath.Join(clone, "README.md"), []byte("# local edit\n"), 0o644))

	c := &Checker{VCS: Repo{Path: clone}}
	o := c.SyncIfBehind()
	assert.Equal(t, SyncFailed, o.Kind)
	assert.Equal(t, Behind, o.Status.State)
	var se *SyncError
	require.ErrorAs(t, o.Err, &se)
	assert.Equal(t, "git pull --ff-only", se.Command)
}

func TestRunOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())

	o, err := Run(Config{Dir: t.TempDir(), Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, Skipped, o.Kind)
	assert.Equal(t, Unknown, o.Status.State)
	var qe *QueryError
	require.ErrorAs(t, o.Err, &qe)
	assert.Equal(t, "git fetch", qe.Command)
	assert.Contains(t, qe.Output, "not a git repository")
}

func TestRunInvalidDir(t *testing.T) {
	dir := t.TempDir()
	o, err := Run(Config{Dir: filepath.Join(dir, "missing"), Quiet: true})
	assert.Error(t, err)
	assert.Equal(t, OutcomeUnknown, o.Kind)

	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	o, err = Run(Config{Dir: file, Quiet: true})
	assert.ErrorContains(t, err, "is not a directory")
	assert.Equal(t, OutcomeUnknown, o.Kind)
}
