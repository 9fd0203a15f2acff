// Package plan describes a run plan: the tasks to schedule, their
// dependencies and how each one should behave when simulated. Plans are read
// from HCL or YAML files by Load.
package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/status"
)

// ErrInvalidPlan is wrapped by every validation error.
var ErrInvalidPlan = errors.New("invalid plan")

// Plan is the format-agnostic model produced by a Loader.
type Plan struct {
	Tasks []*Task
}

// Task is one entry in a plan.
type Task struct {
	// Name is the unique task name.
	Name string
	// DependsOn lists task names that must finish first.
	DependsOn []string
	// Result is the status the simulated builder reports.
	Result status.Status
	// Duration is how long the simulated builder runs.
	Duration time.Duration
	// Output and Stderr are the lines the builder writes.
	Output []string
	Stderr []string
	// SkipAllowed marks the task as up to date before the run.
	SkipAllowed bool
	// EmptyScript marks the task as having nothing to do.
	EmptyScript bool
	// Error, when set, is returned by the builder as its error.
	Error string
	// Source is the file the task was declared in.
	Source string
}

// ParseResult converts a plan status keyword into a builder result status.
// An empty string means success.
func ParseResult(s string) (status.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "success":
		return status.Success, nil
	case "warning", "warnings", "success_with_warning", "success_with_warnings":
		return status.SuccessWithWarning, nil
	case "skipped", "skip":
		return status.Skipped, nil
	case "failure", "failed", "fail":
		return status.Failure, nil
	default:
		return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidPlan, s)
	}
}

// parseDuration accepts Go duration syntax, empty meaning zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %q", ErrInvalidPlan, s)
	}
	return d, nil
}

// merge appends tasks from another file, rejecting names declared twice.
func (p *Plan) merge(other *Plan) error {
	seen := make(map[string]string, len(p.Tasks))
	for _, t := range p.Tasks {
		seen[t.Name] = t.Source
	}
	for _, t := range other.Tasks {
		if t.Name == "" {
			return fmt.Errorf("%w: task without a name in %s", ErrInvalidPlan, t.Source)
		}
		if src, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: task %q declared in both %s and %s", ErrInvalidPlan, t.Name, src, t.Source)
		}
		seen[t.Name] = t.Source
		p.Tasks = append(p.Tasks, t)
	}
	return nil
}
