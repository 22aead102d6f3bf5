package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"workshop-planner/internal/common/lock"
	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
)

type OrderSource interface {
	PendingOrders(ctx context.Context, stage domain.Stage) ([]domain.Order, error)
}

type EmployeeSource interface {
	EligibleEmployees(ctx context.Context, role domain.Role) ([]domain.Employee, error)
}

// PlanStore persists a run. With clean set, the previous plan for planDate is
// removed in the same transaction. It returns the number of removed records.
type PlanStore interface {
	ReplacePlan(ctx context.Context, planDate time.Time, clean bool, records []domain.Assignment) (int, error)
}

type Notifier interface {
	PlanningCompleted(ctx context.Context, r domain.PlanningResult) error
}

type Planner struct {
	orders    OrderSource
	employees EmployeeSource
	store     PlanStore
	locker    lock.Locker
	notifier  Notifier
	engine    *Engine
	cfg       Config
	log       *logger.Logger
}

type Option func(*Planner)

func WithNotifier(n Notifier) Option { return func(p *Planner) { p.notifier = n } }

func WithLogger(lg *logger.Logger) Option { return func(p *Planner) { p.log = lg } }

func NewPlanner(cfg Config, orders OrderSource, employees EmployeeSource, store PlanStore, locker lock.Locker, opts ...Option) *Planner {
	p := &Planner{
		orders:    orders,
		employees: employees,
		store:     store,
		locker:    locker,
		cfg:       cfg,
		log:       logger.New("planner"),
	}
	for _, o := range opts {
		o(p)
	}
	p.engine = NewEngine(cfg, p.log)
	return p
}

type stageInput struct {
	stage     domain.Stage
	orders    []domain.Order
	employees []domain.Employee
}

// Run plans every stage for date. It either commits a complete plan and
// returns its summary, or fails without persisting anything.
func (p *Planner) Run(ctx context.Context, date time.Time, cleanFirst bool) (domain.PlanningResult, error) {
	planDate := domain.DateOf(date.In(p.cfg.location()))
	runID := uuid.NewString()
	lg := p.log.With(map[string]any{"plan_date": planDate.Format(domain.DateLayout), "run_id": runID})
	lg.Info("planning_started", map[string]any{"clean_first": cleanFirst})

	res, err := p.run(ctx, lg, planDate, runID, cleanFirst)
	if err != nil {
		lg.Error("planning_failed", err, nil)
		return domain.PlanningResult{}, err
	}
	lg.Info("planning_completed", map[string]any{"total_planned": res.TotalPlanned, "deleted": res.Deleted})

	if p.notifier != nil {
		if err := p.notifier.PlanningCompleted(ctx, res); err != nil {
			lg.Error("planning_notify_failed", err, nil)
		}
	}
	return res, nil
}

func (p *Planner) run(ctx context.Context, lg *logger.Logger, planDate time.Time, runID string, cleanFirst bool) (domain.PlanningResult, error) {
	release, err := p.locker.Acquire(ctx, "planning:"+planDate.Format(domain.DateLayout))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return domain.PlanningResult{}, fmt.Errorf("%w: %s", ErrRunInProgress, planDate.Format(domain.DateLayout))
		}
		return domain.PlanningResult{}, fmt.Errorf("acquire planning lock: %w", err)
	}
	defer release()

	inputs, err := p.load(ctx)
	if err != nil {
		return domain.PlanningResult{}, err
	}
	for _, in := range inputs {
		lg.Info("stage_loaded", map[string]any{
			"stage": in.stage.String(), "role": string(in.stage.Role()), "orders": len(in.orders), "employees": len(in.employees),
		})
	}

	var missing []domain.Stage
	for _, in := range inputs {
		if len(in.orders) > 0 && len(in.employees) == 0 {
			missing = append(missing, in.stage)
		}
	}
	if len(missing) > 0 {
		return domain.PlanningResult{}, &InfeasibleError{Stages: missing}
	}

	engine := p.engine.withLogger(lg)
	outcomes := make([]StageOutcome, 0, len(inputs))
	var records []domain.Assignment
	for _, in := range inputs {
		o := engine.Assign(in.stage, planDate, in.orders, in.employees)
		outcomes = append(outcomes, o)
		records = append(records, o.Assignments...)
	}

	deleted, err := p.store.ReplacePlan(ctx, planDate, cleanFirst, records)
	if err != nil {
		return domain.PlanningResult{}, fmt.Errorf("%w: persist plan: %w", ErrStorage, err)
	}
	if cleanFirst {
		lg.Info("planning_cleaned", map[string]any{"deleted": deleted})
	}

	res := summarize(outcomes, inputs)
	res.RunID = runID
	res.PlanDate = planDate.Format(domain.DateLayout)
	res.CleanFirst = cleanFirst
	res.Deleted = deleted
	return res, nil
}

func (p *Planner) load(ctx context.Context) ([]stageInput, error) {
	inputs := make([]stageInput, 0, len(domain.Stages))
	for _, s := range domain.Stages {
		orders, err := p.orders.PendingOrders(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s orders: %w", ErrStorage, s, err)
		}
		emps, err := p.employees.EligibleEmployees(ctx, s.Role())
		if err != nil {
			return nil, fmt.Errorf("%w: load %s employees: %w", ErrStorage, s.Role(), err)
		}
		inputs = append(inputs, stageInput{stage: s, orders: orders, employees: emps})
	}
	return inputs, nil
}

func summarize(outcomes []StageOutcome, inputs []stageInput) domain.PlanningResult {
	var res domain.PlanningResult
	parts := make([]string, 0, len(outcomes))
	for i, o := range outcomes {
		st := domain.StageSummary{
			Stage:     o.Stage,
			Orders:    len(inputs[i].orders),
			Employees: len(o.Workloads),
			Planned:   len(o.Assignments),
			Skipped:   o.Skipped,
			Workloads: make([]domain.EmployeeWorkload, 0, len(o.Workloads)),
		}
		for _, a := range o.Assignments {
			st.TotalMinutes += a.DurationMinutes
			st.TotalCards += a.CardCount
		}
		for _, w := range o.Workloads {
			st.Workloads = append(st.Workloads, w.Summary())
		}
		res.Stages = append(res.Stages, st)
		res.TotalPlanned += st.Planned
		res.UnknownPriorities += o.UnknownPriorities
		parts = append(parts, fmt.Sprintf("%d %s", st.Planned, o.Stage))
	}
	res.Message = "planning completed: " + strings.Join(parts, " + ")
	return res
}
