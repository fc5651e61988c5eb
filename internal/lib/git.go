// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// VCS is the version control capability a Checker needs.
type VCS interface {
	// Fetch refreshes the remote-tracking refs.
	Fetch() error
	// ResolveRef resolves a symbolic ref such as HEAD or HEAD@{upstream}
	// to a commit id.
	ResolveRef(name string) (string, error)
	MergeBase(a, b string) (string, error)
	// Pull integrates upstream into the local branch.
	Pull() error
}

const (
	refHead     = "HEAD"
	refUpstream = "HEAD@{upstream}"
)

// Repo is a VCS backed by the git command line, run in Path.
type Repo struct {
	Path string
}

var _ VCS = Repo{}

func (r Repo) Fetch() error {
	_, err := r.query("fetch")
	return err
}

func (r Repo) ResolveRef(name string) (string, error) {
	out, err := r.query("rev-parse", "--verify", name)
	if err != nil {
		if qe, ok := err.(*QueryError); ok && strings.Contains(qe.Output, "no upstream configured") {
			qe.Err = fmt.Errorf("%w: %w", ErrNoUpstream, qe.Err)
		}
		return "", err
	}
	return out, nil
}

func (r Repo) MergeBase(a, b string) (string, error) {
	return r.query("merge-base", a, b)
}

// Pull only fast-forwards. If upstream diverged after the status check,
// the pull fails instead of creating a merge commit.
func (r Repo) Pull() error {
	args := []string{"pull", "--ff-only"}
	if _, stderr, err := r.run(args...); err != nil {
		return &SyncError{Command: commandLine(args), Output: stderr, Err: err}
	}
	return nil
}

func (r Repo) query(args ...string) (string, error) {
	stdout, stderr, err := r.run(args...)
	if err != nil {
		return "", &QueryError{Command: commandLine(args), Output: stderr, Err: err}
	}
	return stdout, nil
}

func (r Repo) run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	var outb, errb bytes.Buffer
	cmd.Stdout = &outb
	cmd.Stderr = &errb
	err = cmd.Run()
	return strings.TrimSpace(outb.String()), strings.TrimSpace(errb.String()), err
}

func commandLine(args []string) string {
	return "git " + strings.Join(args, " ")
}
