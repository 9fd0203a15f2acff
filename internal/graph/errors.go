package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTask is matched by DuplicateTaskError.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrUnknownTask is matched by UnknownTaskError.
	ErrUnknownTask = errors.New("unknown task")
	// ErrCyclicDependency is matched by CyclicDependencyError.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrInvalidTask is returned when a task has no name or no builder.
	ErrInvalidTask = errors.New("invalid task")
	// ErrGraphFrozen is returned when the graph is modified after an
	// execution order was computed.
	ErrGraphFrozen = errors.New("graph is frozen")
)

// DuplicateTaskError reports a second registration of the same task name.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("a task named %q has already been registered", e.Name)
}

func (e *DuplicateTaskError) Unwrap() error { return ErrDuplicateTask }

// UnknownTaskError reports a dependency edge naming an unregistered task.
// Referrer is the task the edge was being added to, empty when Name itself
// is the missing referrer.
type UnknownTaskError struct {
	Name     string
	Referrer string
}

func (e *UnknownTaskError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("task %q has not been registered", e.Name)
	}
	return fmt.Sprintf("task %q depends on %q, which has not been registered", e.Referrer, e.Name)
}

func (e *UnknownTaskError) Unwrap() error { return ErrUnknownTask }

// CyclicDependencyError carries the full cycle in dependency direction: each
// element depends on the one after it, and the first and last are the same.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency encountered:\n  " + strings.Join(e.Path, "\n  -> ")
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }
