package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"workshop-planner/internal/domain"
)

func TestAssignmentRowMatchesColumns(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	a := domain.Assignment{
		ID:              uuid.New(),
		PlanDate:        day,
		WorkDate:        day,
		OrderID:         "O1",
		OrderNumber:     "N-1",
		EmployeeID:      "E1",
		Stage:           domain.StageScanning,
		Start:           day.Add(9 * time.Hour),
		End:             day.Add(9*time.Hour + 5*time.Minute),
		DurationMinutes: 5,
		PriorityCode:    "X",
		CardCount:       0,
		Status:          domain.AssignmentScheduled,
	}

	row := assignmentRow(a)
	require.Len(t, row, len(assignmentColumns))

	byCol := map[string]any{}
	for i, c := range assignmentColumns {
		byCol[c] = row[i]
	}
	require.Equal(t, "scanning", byCol["stage"])
	require.Equal(t, "SCHEDULED", byCol["status"])
	require.Equal(t, a.ID, byCol["id"])
	require.Equal(t, 5, byCol["duration_minutes"])
}

func TestFullName(t *testing.T) {
	require.Equal(t, "Ann Lee", fullName(" Ann", "Lee "))
	require.Equal(t, "Ann", fullName("Ann", ""))
}
