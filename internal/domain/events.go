package domain

import "time"

type StageCount struct {
	Stage   Stage `json:"stage"`
	Planned int   `json:"planned"`
	Skipped int   `json:"skipped"`
}

// PlanningCompleted is published once a plan is committed.
type PlanningCompleted struct {
	RunID        string       `json:"run_id"`
	PlanDate     string       `json:"plan_date"`
	TotalPlanned int          `json:"total_planned"`
	Stages       []StageCount `json:"stages"`
	Timestamp    time.Time    `json:"timestamp"`
}

func NewPlanningCompleted(r PlanningResult, at time.Time) PlanningCompleted {
	ev := PlanningCompleted{
		RunID:        r.RunID,
		PlanDate:     r.PlanDate,
		TotalPlanned: r.TotalPlanned,
		Timestamp:    at.UTC(),
	}
	for _, s := range r.Stages {
		ev.Stages = append(ev.Stages, StageCount{Stage: s.Stage, Planned: s.Planned, Skipped: s.Skipped})
	}
	return ev
}
