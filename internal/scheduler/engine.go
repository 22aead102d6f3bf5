package scheduler

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
)

// StageOutcome is what one stage pass produced.
type StageOutcome struct {
	Stage             domain.Stage
	Assignments       []domain.Assignment
	Skipped           int
	UnknownPriorities int
	Workloads         []*Workload
}

// Engine assigns the pending orders of one stage to that stage's employees.
type Engine struct {
	cfg   Config
	log   *logger.Logger
	newID func() uuid.UUID
}

func NewEngine(cfg Config, lg *logger.Logger) *Engine {
	if lg == nil {
		lg = logger.Discard()
	}
	return &Engine{cfg: cfg, log: lg, newID: uuid.New}
}

func (e *Engine) withLogger(lg *logger.Logger) *Engine {
	cp := *e
	cp.log = lg
	return &cp
}

type rankedOrder struct {
	domain.Order
	rank int
}

// Assign runs the greedy pass: orders by priority rank then age, each to the
// currently least-loaded employee (lowest id on ties), packed into working days.
func (e *Engine) Assign(stage domain.Stage, planDate time.Time, orders []domain.Order, employees []domain.Employee) StageOutcome {
	out := StageOutcome{Stage: stage}
	planDate = domain.DateOf(planDate.In(e.cfg.location()))

	workloads := e.workloads(employees, planDate)
	out.Workloads = workloads
	if len(orders) == 0 || len(workloads) == 0 {
		e.log.Info("stage_skipped", map[string]any{
			"stage": stage.String(), "orders": len(orders), "employees": len(workloads),
		})
		return out
	}

	queue := make([]rankedOrder, 0, len(orders))
	for _, o := range orders {
		code, known := NormalizePriority(o.PriorityCode)
		if !known {
			out.UnknownPriorities++
			e.log.Warn("unknown_priority", map[string]any{
				"stage": stage.String(), "order_id": o.ID, "code": o.PriorityCode, "default": DefaultPriority,
			})
		}
		o.PriorityCode = code
		queue = append(queue, rankedOrder{Order: o, rank: priorityRanks[code]})
	}
	slices.SortStableFunc(queue, func(a, b rankedOrder) int {
		if c := cmp.Compare(b.rank, a.rank); c != 0 {
			return c
		}
		return a.ReferenceDate.Compare(b.ReferenceDate)
	})

	for _, o := range queue {
		if !hasWork(stage, o.CardCount) {
			out.Skipped++
			e.log.Warn("order_skipped", map[string]any{
				"stage": stage.String(), "order_id": o.ID, "card_count": o.CardCount,
			})
			continue
		}
		minutes := e.cfg.Duration(stage, o.CardCount)
		w := leastLoaded(workloads)
		start := w.NextStart(minutes)
		end := start.Add(time.Duration(minutes) * time.Minute)

		out.Assignments = append(out.Assignments, domain.Assignment{
			ID:              e.newID(),
			PlanDate:        planDate,
			WorkDate:        domain.DateOf(start),
			OrderID:         o.ID,
			OrderNumber:     o.Number,
			EmployeeID:      w.Employee.ID,
			Stage:           stage,
			Start:           start,
			End:             end,
			DurationMinutes: minutes,
			PriorityCode:    o.PriorityCode,
			CardCount:       o.CardCount,
			Status:          domain.AssignmentScheduled,
		})
		w.Commit(minutes, start, end)
	}

	e.log.Info("stage_assigned", map[string]any{
		"stage": stage.String(), "planned": len(out.Assignments), "skipped": out.Skipped, "employees": len(workloads),
	})
	return out
}

// workloads builds one accumulator per distinct employee, ordered by id.
func (e *Engine) workloads(employees []domain.Employee, planDate time.Time) []*Workload {
	seen := make(map[string]bool, len(employees))
	out := make([]*Workload, 0, len(employees))
	for _, emp := range employees {
		if seen[emp.ID] {
			continue
		}
		seen[emp.ID] = true
		out = append(out, newWorkload(emp, planDate, e.cfg))
	}
	slices.SortFunc(out, func(a, b *Workload) int { return cmp.Compare(a.Employee.ID, b.Employee.ID) })
	return out
}

func leastLoaded(ws []*Workload) *Workload {
	best := ws[0]
	for _, w := range ws[1:] {
		if w.TotalMinutes < best.TotalMinutes {
			best = w
		}
	}
	return best
}
