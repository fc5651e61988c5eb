// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"errors"
	"fmt"
)

type Config struct {
	Dir   string
	Check bool // report only, never pull
	Quiet bool
}

// SyncState is how the local HEAD relates to its upstream.
type SyncState int

const (
	Unknown SyncState = iota
	UpToDate
	Behind
	Diverged
)

func (s SyncState) String() string {
	switch s {
	case UpToDate:
		return "up to date"
	case Behind:
		return "behind"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the three identifiers a check compared.
type Status struct {
	State    SyncState
	Local    string
	Upstream string
	Base     string
}

type OutcomeKind int

const (
	// OutcomeUnknown is returned alongside an error from Run.
	OutcomeUnknown OutcomeKind = iota
	NoActionNeeded
	Synced
	Skipped
	SyncFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnknown:
		return "unknown"
	case NoActionNeeded:
		return "no action needed"
	case Synced:
		return "synced"
	case Skipped:
		return "skipped"
	case SyncFailed:
		return "sync failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

type Outcome struct {
	Kind   OutcomeKind
	Status Status

	// Head is HEAD after a successful pull.
	Head    string
	Changed bool

	// Err is a *QueryError for Skipped outcomes where the status could not
	// be determined, and a *SyncError for SyncFailed.
	Err error
}

// ErrNoUpstream is wrapped by the QueryError returned when the current
// branch has no upstream tracking branch.
var ErrNoUpstream = errors.New("no upstream configured")

// QueryError is returned when a read-only git command fails.
type QueryError struct {
	Command string
	Output  string
	Err     error
}

func (e *QueryError) Error() string {
	return formatCommandError(e.Command, e.Err, e.Output)
}

func (e *QueryError) Unwrap() error { return e.Err }

// SyncError is returned when the pull itself fails.
type SyncError struct {
	Command string
	Output  string
	Err     error
}

func (e *SyncError) Error() string {
	return formatCommandError(e.Command, e.Err, e.Output)
}

func (e *SyncError) Unwrap() error { return e.Err }

func formatCommandError(command string, err error, output string) string {
	if output == "" {
		return fmt.Sprintf("%s: %v", command, err)
	}
	return fmt.Sprintf("%s: %v: %s", command, err, output)
}
