// Package simulate provides a Builder that acts out a plan entry: it writes
// the planned output, waits for the planned duration and reports the
// planned status. It lets whole runs be rehearsed without real build tools.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/ctxlog"
	"github.com/specialistvlad/buildgridgo/internal/plan"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

// Builder implements builder.Builder for one plan task.
type Builder struct {
	builder.Base
	task  *plan.Task
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a simulated builder for t.
func New(t *plan.Task) *Builder {
	b := &Builder{task: t, sleep: sleep}
	b.Init(t.Name, t.SkipAllowed, t.EmptyScript)
	return b
}

// Execute implements builder.Builder.
func (b *Builder) Execute(ctx context.Context, bc builder.Context) (status.Status, error) {
	logger := ctxlog.FromContext(ctx).With("task", b.Name())
	logger.Debug("Simulating task.", "duration", b.task.Duration, "result", b.task.Result)

	for _, line := range b.task.Output {
		fmt.Fprintln(bc.Stdout, line)
	}
	for _, line := range b.task.Stderr {
		fmt.Fprintln(bc.Stderr, line)
	}

	if err := b.sleep(ctx, b.task.Duration); err != nil {
		return status.Failure, fmt.Errorf("task %q interrupted: %w", b.Name(), err)
	}

	if b.task.Error != "" {
		return status.Failure, errors.New(b.task.Error)
	}
	return b.task.Result, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
