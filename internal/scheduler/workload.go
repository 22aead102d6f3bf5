package scheduler

import (
	"time"

	"workshop-planner/internal/domain"
)

// Workload accumulates one employee's assignments inside one stage of a run.
// It lives for a single Assign call and is never shared between stages.
type Workload struct {
	Employee     domain.Employee
	TotalMinutes int
	Assignments  int
	LastEnd      *time.Time
	WorkingDate  time.Time

	cfg Config
}

func newWorkload(e domain.Employee, planDate time.Time, cfg Config) *Workload {
	return &Workload{Employee: e, WorkingDate: domain.DateOf(planDate), cfg: cfg}
}

// NextStart returns when a task of the given length can start.
// The first task opens the working date at day start; later ones follow the
// previous end plus the break, rolling to the next day's start when the task
// would not finish by day end. A candidate before day start (after a task
// that ran past midnight) waits for that day's start.
func (w *Workload) NextStart(minutes int) time.Time {
	if w.LastEnd == nil {
		return w.cfg.DayStart.On(w.WorkingDate)
	}
	candidate := w.LastEnd.Add(time.Duration(w.cfg.BreakMinutes) * time.Minute)
	if open := w.cfg.DayStart.On(candidate); candidate.Before(open) {
		candidate = open
	}
	end := candidate.Add(time.Duration(minutes) * time.Minute)
	dayEnd := w.cfg.DayEnd.On(candidate)
	if candidate.Before(dayEnd) && !end.After(dayEnd) {
		return candidate
	}
	next := domain.DateOf(candidate).AddDate(0, 0, 1)
	return w.cfg.DayStart.On(next)
}

// Commit records a placed task. Totals only grow.
func (w *Workload) Commit(minutes int, start, end time.Time) {
	w.TotalMinutes += minutes
	w.Assignments++
	e := end
	w.LastEnd = &e
	if d := domain.DateOf(start); d.After(w.WorkingDate) {
		w.WorkingDate = d
	}
}

// Percentage is TotalMinutes over the daily capacity, floored.
func (w *Workload) Percentage() int {
	if w.Employee.DailyCapacityMinutes <= 0 {
		return 0
	}
	return w.TotalMinutes * 100 / w.Employee.DailyCapacityMinutes
}

func (w *Workload) Summary() domain.EmployeeWorkload {
	pct := w.Percentage()
	status := domain.WorkloadAvailable
	if pct >= 100 {
		status = domain.WorkloadFull
	}
	s := domain.EmployeeWorkload{
		EmployeeID:      w.Employee.ID,
		EmployeeName:    w.Employee.Name,
		TotalMinutes:    w.TotalMinutes,
		CapacityMinutes: w.Employee.DailyCapacityMinutes,
		Percentage:      pct,
		Status:          status,
		AssignmentCount: w.Assignments,
	}
	if w.LastEnd != nil {
		next := w.LastEnd.Add(time.Duration(w.cfg.BreakMinutes) * time.Minute)
		s.NextAvailableTime = &next
	}
	return s
}
