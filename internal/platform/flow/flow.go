// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package flow runs named multi-step sequences against the backend and records
which steps completed.

The client has several implicit "transactions" that are not transactional:
friend request + notification creation, contest entry + rank recompute,
friendship accept + notification delete. The backend offers no rollback, so
a failure mid-sequence leaves server state ahead of client state.

Architecture:

  - Sequence: An ordered list of named steps executed strictly in order.
  - PartialFailure: The error produced when a step fails after earlier
    steps committed; it names exactly which steps completed.

No step is retried and nothing is compensated. Recording completion is the
whole contract: it makes the inconsistency observable instead of silent,
so a reconciliation pass can be built later.
*/
package flow

import (
	"context"
	"fmt"
	"strings"
)

// Step is one named unit of a [Sequence].
type Step struct {
	// Name identifies the step in logs and partial-failure reports.
	Name string
	// Run performs the step. A non-nil error aborts the sequence.
	Run func(ctx context.Context) error
}

// Sequence is an ordered multi-step operation with completion tracking.
type Sequence struct {
	// Name identifies the overall flow (e.g. "friend_request").
	Name  string
	Steps []Step
}

// PartialFailure reports a sequence that stopped mid-way: the steps in
// Completed have already taken effect on the backend and are not rolled
// back.
type PartialFailure struct {
	// Flow is the sequence name.
	Flow string
	// Completed lists the names of steps that succeeded before the failure.
	Completed []string
	// Failed is the name of the step that returned the error.
	Failed string
	// Err is the step's underlying error.
	Err error
}

// Error implements the error interface.
func (f *PartialFailure) Error() string {
	if len(f.Completed) == 0 {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s (completed: %s; failed at: %s)",
		f.Err.Error(), strings.Join(f.Completed, ", "), f.Failed)
}

// Unwrap exposes the failing step's error to [errors.Is] and [errors.As],
// so apperr extraction keeps working through a partial failure.
func (f *PartialFailure) Unwrap() error { return f.Err }

// Dirty reports whether any backend-visible step committed before the
// failure, i.e. whether client and server state may now disagree.
func (f *PartialFailure) Dirty() bool { return len(f.Completed) > 0 }

/*
Run executes the sequence's steps strictly in order.

Description: Each step runs only if every earlier step succeeded. On the
first failure the remaining steps are skipped and a [*PartialFailure] is
returned naming the steps already committed.

Parameters:
  - ctx: context.Context

Returns:
  - err: nil when all steps succeeded, *PartialFailure otherwise
*/
func (sequence *Sequence) Run(ctx context.Context) error {
	var completed []string

	for _, step := range sequence.Steps {
		if err := step.Run(ctx); err != nil {
			return &PartialFailure{
				Flow:      sequence.Name,
				Completed: completed,
				Failed:    step.Name,
				Err:       err,
			}
		}
		completed = append(completed, step.Name)
	}

	return nil
}
