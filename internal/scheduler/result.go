package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/node"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

var (
	// ErrTasksFailed means at least one task failed.
	ErrTasksFailed = errors.New("projects failed to build")
	// ErrAlreadyReported means the run failed only because of warnings.
	// The details are already in the summary and should not be printed
	// again.
	ErrAlreadyReported = errors.New("projects succeeded with warnings")
	// ErrAlreadyRun is returned by a second call to Run.
	ErrAlreadyRun = errors.New("scheduler has already run")
)

// Result describes a finished run.
type Result struct {
	// Tasks holds every node in registration order.
	Tasks []*node.Node
	// Counts holds the number of tasks per terminal status.
	Counts map[status.Status]int
	// Parallelism is the worker limit the run used.
	Parallelism int
	// Elapsed is the wall-clock time from first dispatch to last completion.
	Elapsed time.Duration
}

func newResult(tasks []*node.Node, parallelism int, elapsed time.Duration) *Result {
	r := &Result{
		Tasks:       tasks,
		Counts:      make(map[status.Status]int),
		Parallelism: parallelism,
		Elapsed:     elapsed,
	}
	for _, t := range tasks {
		r.Counts[t.Status()]++
	}
	return r
}

// ByStatus returns the tasks that ended in st, in registration order.
func (r *Result) ByStatus(st status.Status) []*node.Node {
	var out []*node.Node
	for _, t := range r.Tasks {
		if t.Status() == st {
			out = append(out, t)
		}
	}
	return out
}

// HasFailures reports whether any task failed.
func (r *Result) HasFailures() bool {
	return r.Counts[status.Failure] > 0
}

// HasWarnings reports whether any task succeeded with warnings.
func (r *Result) HasWarnings() bool {
	return r.Counts[status.SuccessWithWarning] > 0
}

// RunError is returned when a run completes but does not succeed. It
// unwraps to ErrTasksFailed or ErrAlreadyReported.
type RunError struct {
	Failed   int
	Blocked  int
	Warnings int
	kind     error
}

func (e *RunError) Error() string {
	if e.kind == ErrAlreadyReported {
		return fmt.Sprintf("%d %s succeeded with warnings", e.Warnings, projects(e.Warnings))
	}
	msg := fmt.Sprintf("%d %s failed to build", e.Failed, projects(e.Failed))
	if e.Blocked > 0 {
		msg += fmt.Sprintf(", %d blocked", e.Blocked)
	}
	return msg
}

func (e *RunError) Unwrap() error { return e.kind }

func projects(n int) string {
	if n == 1 {
		return "project"
	}
	return "projects"
}
