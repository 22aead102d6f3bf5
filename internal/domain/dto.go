package domain

import "time"

type WorkloadStatus string

const (
	WorkloadAvailable WorkloadStatus = "AVAILABLE"
	WorkloadFull      WorkloadStatus = "FULL"
)

// EmployeeWorkload is one employee's load inside one stage of a run.
type EmployeeWorkload struct {
	EmployeeID        string         `json:"employee_id"`
	EmployeeName      string         `json:"employee_name"`
	TotalMinutes      int            `json:"total_minutes"`
	CapacityMinutes   int            `json:"capacity_minutes"`
	Percentage        int            `json:"workload_percentage"`
	Status            WorkloadStatus `json:"status"`
	AssignmentCount   int            `json:"assignment_count"`
	NextAvailableTime *time.Time     `json:"next_available_time,omitempty"`
}

type StageSummary struct {
	Stage        Stage              `json:"stage"`
	Orders       int                `json:"orders"`
	Employees    int                `json:"employees"`
	Planned      int                `json:"planned"`
	Skipped      int                `json:"skipped"`
	TotalMinutes int                `json:"total_minutes"`
	TotalCards   int                `json:"total_cards"`
	Workloads    []EmployeeWorkload `json:"workloads"`
}

type PlanningResult struct {
	RunID             string         `json:"run_id"`
	PlanDate          string         `json:"plan_date"`
	CleanFirst        bool           `json:"clean_first"`
	Deleted           int            `json:"deleted"`
	TotalPlanned      int            `json:"total_planned"`
	UnknownPriorities int            `json:"unknown_priorities"`
	Stages            []StageSummary `json:"stages"`
	Message           string         `json:"message"`
}

// Planned returns the planned count of one stage.
func (r PlanningResult) Planned(s Stage) int {
	for _, st := range r.Stages {
		if st.Stage == s {
			return st.Planned
		}
	}
	return 0
}

type RunPlanningRequest struct {
	Date       string `json:"date,omitempty"`
	CleanFirst *bool  `json:"clean_first,omitempty"`
}

type UpdateAssignmentRequest struct {
	Status string `json:"status"`
}
