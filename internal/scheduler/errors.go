package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"workshop-planner/internal/domain"
)

var (
	ErrInfeasible    = errors.New("planning infeasible")
	ErrRunInProgress = errors.New("planning already running for this date")
	ErrStorage       = errors.New("planning storage failure")
)

// InfeasibleError lists the stages that have pending orders but no eligible staff.
type InfeasibleError struct {
	Stages []domain.Stage
}

func (e *InfeasibleError) Error() string {
	parts := make([]string, 0, len(e.Stages))
	for _, s := range e.Stages {
		parts = append(parts, fmt.Sprintf("%s (%s)", s, s.Role()))
	}
	return "no eligible employees for stages with pending orders: " + strings.Join(parts, ", ")
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }
