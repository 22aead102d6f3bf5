package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"workshop-planner/internal/domain"
)

var (
	ErrNotFound          = errors.New("assignment not found")
	ErrInvalidTransition = errors.New("invalid assignment status transition")
)

var assignmentColumns = []string{
	"id", "plan_date", "work_date", "order_id", "order_number", "employee_id", "stage",
	"start_time", "end_time", "duration_minutes", "priority_code", "card_count", "status",
}

const selectAssignments = `
SELECT id, plan_date, work_date, order_id, order_number, employee_id, stage,
       start_time, end_time, duration_minutes, priority_code, card_count, status
FROM planning_assignments`

// Plans stores planning assignments.
type Plans struct {
	db DB
}

func NewPlans(db DB) *Plans { return &Plans{db: db} }

// ReplacePlan writes records in one transaction. With clean set, the earlier
// records of planDate are deleted first and their count is returned.
func (r *Plans) ReplacePlan(ctx context.Context, planDate time.Time, clean bool, records []domain.Assignment) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleted := 0
	if clean {
		tag, err := tx.Exec(ctx, `DELETE FROM planning_assignments WHERE plan_date = $1`, planDate)
		if err != nil {
			return 0, fmt.Errorf("delete previous plan: %w", err)
		}
		deleted = int(tag.RowsAffected())
	}

	if len(records) > 0 {
		rows := make([][]any, 0, len(records))
		for _, a := range records {
			rows = append(rows, assignmentRow(a))
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"planning_assignments"}, assignmentColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, fmt.Errorf("copy assignments: %w", err)
		}
		if int(n) != len(records) {
			return 0, fmt.Errorf("copy assignments: wrote %d of %d", n, len(records))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit plan: %w", err)
	}
	return deleted, nil
}

func assignmentRow(a domain.Assignment) []any {
	return []any{
		a.ID, a.PlanDate, a.WorkDate, a.OrderID, a.OrderNumber, a.EmployeeID, a.Stage.String(),
		a.Start, a.End, a.DurationMinutes, a.PriorityCode, a.CardCount, string(a.Status),
	}
}

func (r *Plans) ListByPlanDate(ctx context.Context, planDate time.Time) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, selectAssignments+`
WHERE plan_date = $1
ORDER BY employee_id, start_time`, planDate)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByEmployee returns an employee's assignments with work dates in [from, to].
func (r *Plans) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, selectAssignments+`
WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
ORDER BY start_time`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// UpdateStatus moves one assignment along its lifecycle.
func (r *Plans) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AssignmentStatus) (domain.Assignment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Assignment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, selectAssignments+` WHERE id = $1 FOR UPDATE`, id)
	a, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assignment{}, ErrNotFound
	}
	if err != nil {
		return domain.Assignment{}, err
	}
	if !a.Status.CanMoveTo(next) {
		return domain.Assignment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}

	if _, err := tx.Exec(ctx, `
UPDATE planning_assignments SET status = $2, updated_at = now() WHERE id = $1
`, id, string(next)); err != nil {
		return domain.Assignment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Assignment{}, err
	}
	a.Status = next
	return a, nil
}

func collect(rows pgx.Rows) ([]domain.Assignment, error) {
	defer rows.Close()
	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var (
		a             domain.Assignment
		stage, status string
	)
	if err := row.Scan(&a.ID, &a.PlanDate, &a.WorkDate, &a.OrderID, &a.OrderNumber, &a.EmployeeID, &stage,
		&a.Start, &a.End, &a.DurationMinutes, &a.PriorityCode, &a.CardCount, &status); err != nil {
		return domain.Assignment{}, err
	}
	s, err := domain.ParseStage(stage)
	if err != nil {
		return domain.Assignment{}, err
	}
	a.Stage = s
	a.Status = domain.AssignmentStatus(status)
	return a, nil
}
