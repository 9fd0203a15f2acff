// Package status defines the lifecycle states of a task within a single
// scheduling run and the transitions allowed between them.
//
// The lifecycle is:
//
//	Ready -> Executing -> {Success, SuccessWithWarning, Skipped, Failure}
//	Ready -> Blocked
//
// Failure and Blocked are terminal failure states; Success,
// SuccessWithWarning and Skipped are terminal success states. No task
// re-enters Ready within a run.
package status

import "fmt"

// Status represents the execution state of a task.
type Status int

const (
	// Ready indicates the task has not been dispatched yet.
	Ready Status = iota
	// Executing indicates a worker has dispatched the task's builder.
	Executing
	// Success indicates the builder completed without warnings.
	Success
	// SuccessWithWarning indicates the builder completed but reported warnings.
	SuccessWithWarning
	// Skipped indicates the task was up to date and its builder did not run.
	Skipped
	// Failure indicates the builder failed, panicked or returned an error.
	Failure
	// Blocked indicates an upstream dependency failed, so the task never ran.
	Blocked
)

var names = map[Status]string{
	Ready:              "READY",
	Executing:          "EXECUTING",
	Success:            "SUCCESS",
	SuccessWithWarning: "SUCCESS WITH WARNINGS",
	Skipped:            "SKIPPED",
	Failure:            "FAILURE",
	Blocked:            "BLOCKED",
}

// String returns the upper-case display name used in reports.
func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	switch s {
	case Success, SuccessWithWarning, Skipped, Failure, Blocked:
		return true
	default:
		return false
	}
}

// Succeeded reports whether s satisfies dependents, i.e. unblocks them.
func (s Status) Succeeded() bool {
	switch s {
	case Success, SuccessWithWarning, Skipped:
		return true
	default:
		return false
	}
}

// IsBuilderResult reports whether s is a status a builder may legally return.
func (s Status) IsBuilderResult() bool {
	return s.Succeeded() || s == Failure
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	switch from {
	case Ready:
		return to == Executing || to == Blocked
	case Executing:
		return to.IsBuilderResult()
	default:
		return false
	}
}
