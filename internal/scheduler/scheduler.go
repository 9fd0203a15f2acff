package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/ctxlog"
	"github.com/specialistvlad/buildgridgo/internal/graph"
	"github.com/specialistvlad/buildgridgo/internal/metrics"
	"github.com/specialistvlad/buildgridgo/internal/node"
	"github.com/specialistvlad/buildgridgo/internal/queue"
	"github.com/specialistvlad/buildgridgo/internal/report"
	"github.com/specialistvlad/buildgridgo/internal/status"
	"github.com/specialistvlad/buildgridgo/internal/stdio"
	"golang.org/x/sync/errgroup"
)

var (
	white  = color.New(color.FgWhite).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
)

// Scheduler drives one graph through one run.
type Scheduler struct {
	graph       *graph.Graph
	opts        Options
	parallelism int
	out         io.Writer
	metrics     *metrics.Collector
	ran         atomic.Bool

	// Set up by Run.
	logger *slog.Logger
	queue  *queue.ReadyQueue

	// Guarded by the queue lock.
	total     int
	completed int
}

// New validates opts and returns a scheduler for g. The scheduler owns g
// for the duration of Run.
func New(g *graph.Graph, opts Options) (*Scheduler, error) {
	parallelism, err := ParseParallelism(opts.Parallelism)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	return &Scheduler{
		graph:       g,
		opts:        opts,
		parallelism: parallelism,
		out:         out,
		metrics:     opts.Metrics,
	}, nil
}

// Parallelism returns the resolved worker limit.
func (s *Scheduler) Parallelism() int {
	return s.parallelism
}

// Run executes every task and writes the summary. A cycle in the graph is
// returned before any task runs. A completed run that did not succeed
// returns its Result together with a *RunError.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	s.logger = ctxlog.FromContext(ctx)

	order, err := s.graph.ExecutionOrder()
	if err != nil {
		return nil, fmt.Errorf("computing execution order: %w", err)
	}

	s.total = len(order)
	s.queue = queue.New(order)
	s.printBanner(order)
	s.logger.Info("Starting run.", "tasks", len(order), "parallelism", s.parallelism)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for id := range min(s.parallelism, len(order)) {
		g.Go(func() error {
			return s.worker(gctx, id)
		})
	}
	werr := g.Wait()
	result := newResult(s.graph.Nodes(), s.parallelism, time.Since(start))

	if werr != nil {
		return result, werr
	}
	if err := ctx.Err(); err != nil {
		s.logger.Warn("Run interrupted.", "error", err)
		return result, fmt.Errorf("run interrupted: %w", err)
	}

	if err := report.WriteSummary(s.out, result.Tasks); err != nil {
		return result, fmt.Errorf("writing summary: %w", err)
	}
	return result, s.finish(result)
}

func (s *Scheduler) printBanner(order []*node.Node) {
	if !s.opts.QuietMode {
		names := make([]string, len(order))
		for i, n := range order {
			names[i] = n.Name
		}
		slices.Sort(names)
		fmt.Fprintf(s.out, "Selected %d %s:\n", len(names), projects(len(names)))
		for _, name := range names {
			fmt.Fprintf(s.out, "  %s\n", name)
		}
		fmt.Fprintln(s.out)
	}
	fmt.Fprintf(s.out, "Executing a maximum of %d simultaneous processes...\n\n", s.parallelism)
}

// finish applies the final result policy.
func (s *Scheduler) finish(r *Result) error {
	switch {
	case r.HasFailures():
		fmt.Fprintln(s.out, red("Projects failed to build."))
		s.metrics.RunFinished("failure")
		s.logger.Error("Run failed.", "failed", r.Counts[status.Failure], "blocked", r.Counts[status.Blocked])
		return &RunError{
			Failed:   r.Counts[status.Failure],
			Blocked:  r.Counts[status.Blocked],
			Warnings: r.Counts[status.SuccessWithWarning],
			kind:     ErrTasksFailed,
		}
	case r.HasWarnings() && !s.opts.AllowWarningsInSuccessfulBuild:
		fmt.Fprintln(s.out, yellow("Projects succeeded with warnings."))
		s.metrics.RunFinished("warning")
		s.logger.Warn("Run succeeded with warnings.", "warnings", r.Counts[status.SuccessWithWarning])
		return &RunError{Warnings: r.Counts[status.SuccessWithWarning], kind: ErrAlreadyReported}
	default:
		s.metrics.RunFinished("success")
		s.logger.Info("Run succeeded.", "tasks", len(r.Tasks), "elapsed", r.Elapsed)
		return nil
	}
}

// worker is the processing loop for a single concurrent worker.
func (s *Scheduler) worker(ctx context.Context, id int) error {
	logger := s.logger.With("workerID", id)
	logger.Debug("Worker started.")

	for n := range s.queue.All(ctx) {
		if err := s.dispatch(ctx, logger.With("task", n.Name), n); err != nil {
			return err
		}
	}
	logger.Debug("Worker finished.")
	return nil
}

func (s *Scheduler) dispatch(ctx context.Context, logger *slog.Logger, n *node.Node) error {
	var err error
	s.queue.Commit(func() {
		if err = n.SetStatus(status.Executing); err != nil {
			return
		}
		if !s.opts.QuietMode {
			fmt.Fprintln(s.out, white("[%s] started", n.Name))
		}
	})
	if err != nil {
		return err
	}
	logger.Debug("Task started.")

	n.Output = stdio.NewSummarizer()
	s.metrics.TaskStarted()
	n.Stopwatch.Start()

	result := status.Skipped
	var execErr error
	if !n.Builder.IsSkipAllowed() {
		result, execErr = invoke(ctx, n, builder.Context{
			Stdout:    n.Output.Stdout(),
			Stderr:    n.Output.Stderr(),
			QuietMode: s.opts.QuietMode,
		})
	}

	n.Stopwatch.Stop()
	n.Output.Close()

	s.queue.Commit(func() {
		s.complete(logger, n, result, execErr)
	})
	return nil
}

// invoke calls the builder, turning a panic into a failure.
func invoke(ctx context.Context, n *node.Node, bc builder.Context) (st status.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(bc.Stderr, "panic: %v\n%s", r, debug.Stack())
			st, err = status.Failure, fmt.Errorf("builder for %q panicked: %v", n.Name, r)
		}
	}()
	return n.Builder.Execute(ctx, bc)
}

// complete records a builder result and propagates it to dependents. It
// runs under the queue lock.
func (s *Scheduler) complete(logger *slog.Logger, n *node.Node, result status.Status, err error) {
	if err == nil && !result.IsBuilderResult() {
		err = fmt.Errorf("builder for %q returned invalid status %s", n.Name, result)
	}
	if err != nil {
		result = status.Failure
	}
	n.Err = err
	// Executing always accepts a builder result.
	_ = n.SetStatus(result)

	s.completed++
	s.metrics.TaskFinished(result, n.Stopwatch.Duration())
	progress := s.progress()

	switch result {
	case status.Success:
		if n.Builder.HadEmptyScript() {
			fmt.Fprintln(s.out, green("%s[%s] had an empty script", progress, n.Name))
		} else {
			fmt.Fprintln(s.out, green("%s[%s] completed successfully in %s", progress, n.Name, n.Stopwatch.String()))
		}
		logger.Info("Task succeeded.", "duration", n.Stopwatch.Duration())
		s.release(n, true)
	case status.SuccessWithWarning:
		fmt.Fprintln(s.out, yellow("%s[%s] completed with warnings in %s", progress, n.Name, n.Stopwatch.String()))
		logger.Warn("Task succeeded with warnings.", "duration", n.Stopwatch.Duration())
		s.release(n, true)
	case status.Skipped:
		fmt.Fprintln(s.out, green("%s[%s] skipped", progress, n.Name))
		logger.Info("Task skipped.")
		s.release(n, false)
	case status.Failure:
		fmt.Fprintln(s.out, red("\n%s[%s] failed to build!", progress, n.Name))
		logger.Error("Task failed.", "error", err)
		s.blockDependents(logger, n)
	}
}

// release removes n from the prerequisites of its dependents. After a
// rebuild, dependents can no longer be skipped unless only changed projects
// are built.
func (s *Scheduler) release(n *node.Node, rebuilt bool) {
	for _, i := range n.Dependents() {
		dependent := s.graph.Node(i)
		if rebuilt && !s.opts.ChangedProjectsOnly {
			dependent.Builder.SetSkipAllowed(false)
		}
		dependent.RemoveDependency(n.Index)
	}
}

// blockDependents marks every Ready node reachable from failed as Blocked.
// Nodes that are already Blocked are not revisited.
func (s *Scheduler) blockDependents(logger *slog.Logger, failed *node.Node) {
	stack := failed.Dependents()
	slices.Reverse(stack)
	for len(stack) > 0 {
		dependent := s.graph.Node(stack[len(stack)-1])
		stack = stack[:len(stack)-1]

		if dependent.Status() != status.Ready {
			continue
		}
		// Ready always accepts Blocked.
		_ = dependent.SetStatus(status.Blocked)
		dependent.BlockedBy = failed.Name
		s.completed++
		s.metrics.TaskBlocked()
		fmt.Fprintln(s.out, red("%s[%s] blocked by [%s]!", s.progress(), dependent.Name, failed.Name))
		logger.Warn("Task blocked by failed dependency.", "blocked", dependent.Name)

		next := dependent.Dependents()
		slices.Reverse(next)
		stack = append(stack, next...)
	}
}

func (s *Scheduler) progress() string {
	return fmt.Sprintf("%d of %d: ", s.completed, s.total)
}
