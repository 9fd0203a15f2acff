// Package builder defines the capability the scheduler invokes to perform the
// actual work of a single task.
//
// # Why Builder Exists
//
// The scheduler only decides *when* a task runs. *What* running a task means
// (shelling out to a package script, restoring a cache entry, or a test double)
// belongs to the builder. Keeping the two apart means:
//   - **Isolation:** The scheduler never owns or copies builder state, it only calls it
//   - **Testability:** Scheduling behavior can be verified with scripted builders
//   - **Flexibility:** New kinds of work plug in without touching the scheduler
//
// # Relationship with Other Components
//
//   - **Graph:** Each registered task node wraps exactly one Builder
//   - **Scheduler:** Calls Execute once per dispatched node and maps the result to a status
//   - **Incremental analysis:** Sets the skip-allowed flag from outside before a run
package builder

import (
	"context"
	"io"

	"github.com/specialistvlad/buildgridgo/internal/status"
)

// Builder performs the work for one task and reports a terminal status.
//
// # Skip Semantics
//
// IsSkipAllowed reports whether the tracked inputs of the task are unchanged,
// meaning the scheduler may move the task straight to Skipped without calling
// Execute. The scheduler calls SetSkipAllowed(false) on every dependent of a
// task that was rebuilt, unless the run only builds changed projects.
//
// # Result Contract
//
// Execute must return one of Success, SuccessWithWarning, Skipped or Failure.
// A non-nil error always means Failure, whatever status accompanies it.
//
// # Thread-Safety
//
// Execute is called at most once per run. SetSkipAllowed may be called from a
// different goroutine than the one that later calls Execute.
type Builder interface {
	// Name returns the task name this builder works for.
	Name() string

	// IsSkipAllowed reports whether the scheduler may skip the task.
	IsSkipAllowed() bool

	// SetSkipAllowed overrides the skip eligibility computed by incremental analysis.
	SetSkipAllowed(allowed bool)

	// HadEmptyScript reports whether the task had no work to do. It is
	// reporting metadata only; an empty step is not timed in summaries.
	HadEmptyScript() bool

	// Execute runs the task. Timeouts, if any, are the builder's concern: the
	// scheduler waits for Execute to return.
	Execute(ctx context.Context, bc Context) (status.Status, error)
}

// Context carries the per-invocation collaborators for a builder call.
type Context struct {
	// Stdout receives the task's regular output.
	Stdout io.Writer
	// Stderr receives the task's diagnostic output. Lines written here are
	// what summaries show for failures and warnings.
	Stderr io.Writer
	// QuietMode asks the builder to suppress non-essential output.
	QuietMode bool
}
