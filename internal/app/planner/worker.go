// Package planner triggers planning runs on a cron schedule.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
	"workshop-planner/internal/scheduler"
)

type Runner interface {
	Run(ctx context.Context, date time.Time, cleanFirst bool) (domain.PlanningResult, error)
}

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Worker struct {
	runner     Runner
	spec       string
	sched      cron.Schedule
	loc        *time.Location
	cleanFirst bool
	now        func() time.Time
	log        *logger.Logger
}

func NewWorker(runner Runner, spec string, loc *time.Location, cleanFirst bool, lg *logger.Logger) (*Worker, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if lg == nil {
		lg = logger.Discard()
	}
	return &Worker{runner: runner, spec: spec, sched: sched, loc: loc, cleanFirst: cleanFirst, now: time.Now, log: lg}, nil
}

// Next is the first trigger strictly after t.
func (w *Worker) Next(t time.Time) time.Time { return w.sched.Next(t.In(w.loc)) }

// Run blocks until ctx is cancelled, then waits for an in-flight run.
func (w *Worker) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(w.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(w.sched, cron.FuncJob(func() { w.RunOnce(ctx) }))
	c.Start()
	w.log.Info("planner_scheduled", map[string]any{"cron": w.spec, "timezone": w.loc.String(), "next": w.Next(w.now())})

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce plans today's date in the configured location.
func (w *Worker) RunOnce(ctx context.Context) {
	date := domain.DateOf(w.now().In(w.loc))
	res, err := w.runner.Run(ctx, date, w.cleanFirst)
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		w.log.Warn("planner_run_skipped", map[string]any{"plan_date": date.Format(domain.DateLayout), "reason": err.Error()})
	case err != nil:
		w.log.Error("planner_run_failed", err, map[string]any{"plan_date": date.Format(domain.DateLayout)})
	default:
		w.log.Info("planner_run_done", map[string]any{"plan_date": res.PlanDate, "total_planned": res.TotalPlanned})
	}
}
