// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	infoColor = color.FgGreen
	warnColor = color.FgYellow
	errColor  = color.FgRed
)

// Checker compares a checkout with its upstream and fast-forwards it when
// that is safe. It holds no state between calls; callers must not run two
// syncs against the same working copy at once.
type Checker struct {
	VCS VCS
	Out io.Writer

	// Color enables ANSI colours in Out.
	Color bool
}

// Run checks, and unless cfg.Check is set syncs, the checkout in cfg.Dir.
// The returned error is only set when cfg.Dir is missing or not a directory;
// a directory outside a git work tree is reported as Skipped.
func Run(cfg Config) (Outcome, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return Outcome{}, err
	}
	if !info.IsDir() {
		return Outcome{}, fmt.Errorf("%s is not a directory", cfg.Dir)
	}

	c := &Checker{VCS: Repo{Path: cfg.Dir}, Out: os.Stderr, Color: isColorTerminal(os.Stderr)}
	if cfg.Quiet {
		c.Out = io.Discard
		c.Color = false
	}

	if cfg.Check {
		return c.Check(), nil
	}
	return c.SyncIfBehind(), nil
}

// CheckStatus fetches and then classifies the local HEAD against its
// upstream. The first failing query is returned as a *QueryError.
func (c *Checker) CheckStatus() (Status, error) {
	if err := c.VCS.Fetch(); err != nil {
		return Status{}, asQueryError(err, "fetch")
	}
	local, err := c.VCS.ResolveRef(refHead)
	if err != nil {
		return Status{}, asQueryError(err, "rev-parse", "--verify", refHead)
	}
	upstream, err := c.VCS.ResolveRef(refUpstream)
	if err != nil {
		return Status{}, asQueryError(err, "rev-parse", "--verify", refUpstream)
	}
	base, err := c.VCS.MergeBase(refHead, refUpstream)
	if err != nil {
		return Status{}, asQueryError(err, "merge-base", refHead, refUpstream)
	}

	st := Status{Local: local, Upstream: upstream, Base: base}
	switch {
	case local == upstream:
		st.State = UpToDate
	case local == base:
		st.State = Behind
	default:
		st.State = Diverged
	}
	return st, nil
}

// SyncIfBehind pulls if and only if CheckStatus reports Behind.
func (c *Checker) SyncIfBehind() Outcome {
	st, err := c.CheckStatus()
	if err != nil {
		c.logQueryError(err)
		return Outcome{Kind: Skipped, Status: st, Err: err}
	}

	switch st.State {
	case UpToDate:
		c.log(infoColor, "Already up to date at %s.\n", shortID(st.Local))
		return Outcome{Kind: NoActionNeeded, Status: st}
	case Diverged:
		c.logDiverged(st)
		return Outcome{Kind: Skipped, Status: st}
	}

	c.log(infoColor, "Behind upstream, pulling %s..%s\n", shortID(st.Local), shortID(st.Upstream))
	if err := c.VCS.Pull(); err != nil {
		c.log(errColor, "error: pull failed: %v\n", err)
		return Outcome{Kind: SyncFailed, Status: st, Err: asSyncError(err)}
	}

	o := Outcome{Kind: Synced, Status: st}
	if head, err := c.VCS.ResolveRef(refHead); err == nil {
		o.Head = head
		o.Changed = head != st.Local
		c.log(infoColor, "Updated %s -> %s.\n", shortID(st.Local), shortID(head))
	} else {
		c.log(infoColor, "Pulled from upstream.\n")
	}
	return o
}

// Check reports the status without ever pulling. A checkout that is
// behind is reported as Skipped.
func (c *Checker) Check() Outcome {
	st, err := c.CheckStatus()
	if err != nil {
		c.logQueryError(err)
		return Outcome{Kind: Skipped, Status: st, Err: err}
	}

	switch st.State {
	case UpToDate:
		c.log(infoColor, "Already up to date at %s.\n", shortID(st.Local))
		return Outcome{Kind: NoActionNeeded, Status: st}
	case Behind:
		c.log(warnColor, "Behind upstream (%s..%s); run without --check to pull.\n", shortID(st.Local), shortID(st.Upstream))
	default:
		c.logDiverged(st)
	}
	return Outcome{Kind: Skipped, Status: st}
}

func (c *Checker) logDiverged(st Status) {
	c.log(warnColor, "warning: local branch has commits not on upstream (%s vs %s); not pulling automatically.\n",
		shortID(st.Local), shortID(st.Upstream))
}

func (c *Checker) logQueryError(err error) {
	if errors.Is(err, ErrNoUpstream) {
		c.log(warnColor, "warning: no upstream configured for the current branch; not pulling.\n")
		return
	}
	c.log(errColor, "error: could not determine sync status: %v\n", err)
}

func (c *Checker) log(attr color.Attribute, format string, a ...any) {
	if c.Out == nil {
		return
	}
	col := color.New(attr)
	if c.Color {
		col.EnableColor()
	} else {
		col.DisableColor()
	}
	col.Fprintf(c.Out, format, a...)
}

// isColorTerminal reports whether f is a terminal that should get colours,
// honouring NO_COLOR and TERM=dumb.
func isColorTerminal(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func asQueryError(err error, args ...string) error {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}
	return &QueryError{Command: commandLine(args), Err: err}
}

func asSyncError(err error) error {
	var se *SyncError
	if errors.As(err, &se) {
		return se
	}
	return &SyncError{Command: commandLine([]string{"pull", "--ff-only"}), Err: err}
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
