package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/buildgridgo/internal/graph"
	"github.com/specialistvlad/buildgridgo/internal/plan"
	"github.com/specialistvlad/buildgridgo/internal/report"
	"github.com/specialistvlad/buildgridgo/internal/scheduler"
	"github.com/specialistvlad/buildgridgo/internal/simulate"
)

// Run loads the configured plan and executes it once. A run whose tasks did
// not all succeed returns a *scheduler.RunError after the summary has been
// written.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(ctx, a.config.HealthcheckPort); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.closeHealthcheckServer(ctx))
		}()
	}

	p, err := plan.Load(ctx, a.config.PlanPath, a.config.Vars)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	a.logger.Debug("Plan loaded.", "tasks", len(p.Tasks))

	g, err := buildGraph(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to build task graph: %w", err)
	}
	a.logger.Debug("Task graph built.", "node_count", g.Len())

	s, err := scheduler.New(g, scheduler.Options{
		Parallelism:                    a.config.Parallelism,
		QuietMode:                      a.config.QuietMode,
		ChangedProjectsOnly:            a.config.ChangedProjectsOnly,
		AllowWarningsInSuccessfulBuild: a.config.AllowWarnings,
		Output:                         a.outW,
		Metrics:                        a.metrics,
	})
	if err != nil {
		return err
	}

	result, runErr := s.Run(ctx)
	if result != nil && a.config.TimelinePath != "" {
		if err := writeTimeline(a.config.TimelinePath, result); err != nil {
			return errors.Join(runErr, err)
		}
		a.logger.Info("Timeline written.", "path", a.config.TimelinePath)
	}

	a.logger.Debug("App.Run method finished.")
	return runErr
}

// buildGraph registers every task before wiring dependencies, so plan order
// does not matter.
func buildGraph(ctx context.Context, p *plan.Plan) (*graph.Graph, error) {
	g := graph.New(ctx)
	for _, t := range p.Tasks {
		if _, err := g.AddTask(t.Name, simulate.New(t)); err != nil {
			return nil, err
		}
	}
	for _, t := range p.Tasks {
		if err := g.AddDependencies(t.Name, t.DependsOn...); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func writeTimeline(path string, r *scheduler.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating timeline file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing timeline file: %w", cerr)
		}
	}()
	if err := report.WriteTimeline(f, r.Tasks, r.Parallelism); err != nil {
		return fmt.Errorf("writing timeline: %w", err)
	}
	return nil
}
