package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage is one sequential processing step of a card order.
type Stage int

const (
	StageGrading Stage = iota + 1
	StageCertification
	StagePreparation
	StageScanning
)

// Stages lists every stage in planning order.
var Stages = []Stage{StageGrading, StageCertification, StagePreparation, StageScanning}

type Role string

const (
	RoleGrader    Role = "ROLE_GRADER"
	RoleCertifier Role = "ROLE_CERTIFIER"
	RolePreparer  Role = "ROLE_PREPARER"
	RoleScanner   Role = "ROLE_SCANNER"
)

// DurationPolicy tells how a stage bills time for an order.
type DurationPolicy int

const (
	PerCard DurationPolicy = iota + 1
	FixedPerOrder
)

type stageInfo struct {
	name        string
	role        Role
	orderStatus int
	policy      DurationPolicy
}

var stageTable = map[Stage]stageInfo{
	StageGrading:       {name: "grading", role: RoleGrader, orderStatus: 2, policy: PerCard},
	StageCertification: {name: "certification", role: RoleCertifier, orderStatus: 3, policy: PerCard},
	StagePreparation:   {name: "preparation", role: RolePreparer, orderStatus: 4, policy: PerCard},
	StageScanning:      {name: "scanning", role: RoleScanner, orderStatus: 10, policy: FixedPerOrder},
}

func (s Stage) Valid() bool { _, ok := stageTable[s]; return ok }

func (s Stage) String() string {
	if info, ok := stageTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Role is the employee skill the stage requires.
func (s Stage) Role() Role { return stageTable[s].role }

// OrderStatus is the external order status meaning "waiting for this stage".
func (s Stage) OrderStatus() int { return stageTable[s].orderStatus }

func (s Stage) Policy() DurationPolicy { return stageTable[s].policy }

func ParseStage(v string) (Stage, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range Stages {
		if s.String() == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", v)
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Priority codes, highest urgency first.
const (
	PriorityExcelsior = "X"
	PriorityFastPlus  = "F+"
	PriorityFast      = "F"
	PriorityClassic   = "C"
	PriorityEconomy   = "E"
)

// Order is a card order waiting for a stage.
type Order struct {
	ID            string    `json:"id"`
	Number        string    `json:"order_number"`
	CardCount     int       `json:"card_count"`
	PriorityCode  string    `json:"priority_code"`
	Stage         Stage     `json:"stage"`
	ReferenceDate time.Time `json:"reference_date"`
}

type Employee struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Roles                []Role `json:"roles,omitempty"`
	DailyCapacityMinutes int    `json:"daily_capacity_minutes"`
}

func (e Employee) HasRole(r Role) bool {
	for _, have := range e.Roles {
		if have == r {
			return true
		}
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentScheduled  AssignmentStatus = "SCHEDULED"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
	AssignmentCancelled  AssignmentStatus = "CANCELLED"
)

// CanMoveTo reports whether the lifecycle allows s -> next.
func (s AssignmentStatus) CanMoveTo(next AssignmentStatus) bool {
	switch s {
	case AssignmentScheduled:
		return next == AssignmentInProgress || next == AssignmentCompleted || next == AssignmentCancelled
	case AssignmentInProgress:
		return next == AssignmentCompleted || next == AssignmentCancelled
	default:
		return false
	}
}

func ParseAssignmentStatus(v string) (AssignmentStatus, error) {
	s := AssignmentStatus(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case AssignmentScheduled, AssignmentInProgress, AssignmentCompleted, AssignmentCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown assignment status %q", v)
}

// Assignment binds one order, one employee, one stage and one time window.
type Assignment struct {
	ID              uuid.UUID        `json:"id"`
	PlanDate        time.Time        `json:"plan_date"`
	WorkDate        time.Time        `json:"work_date"`
	OrderID         string           `json:"order_id"`
	OrderNumber     string           `json:"order_number,omitempty"`
	EmployeeID      string           `json:"employee_id"`
	Stage           Stage            `json:"stage"`
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	DurationMinutes int              `json:"duration_minutes"`
	PriorityCode    string           `json:"priority_code"`
	CardCount       int              `json:"card_count"`
	Status          AssignmentStatus `json:"status"`
}
