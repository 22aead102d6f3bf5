package repository

import (
	"context"
	"fmt"
	"strings"

	"workshop-planner/internal/domain"
)

// Employees resolves role membership through active teams named after the role.
type Employees struct {
	db DB
}

func NewEmployees(db DB) *Employees { return &Employees{db: db} }

func (r *Employees) EligibleEmployees(ctx context.Context, role domain.Role) ([]domain.Employee, error) {
	rows, err := r.db.Query(ctx, `
SELECT DISTINCT e.id, e.first_name, e.last_name, e.work_hours_per_day
FROM employees e
JOIN employee_teams et ON et.employee_id = e.id
JOIN teams t ON t.id = et.team_id
WHERE t.name = $1 AND t.active AND e.active
ORDER BY e.id
`, string(role))
	if err != nil {
		return nil, fmt.Errorf("query %s employees: %w", role, err)
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var (
			e           domain.Employee
			first, last string
			hours       int
		)
		if err := rows.Scan(&e.ID, &first, &last, &hours); err != nil {
			return nil, err
		}
		e.Name = fullName(first, last)
		e.DailyCapacityMinutes = hours * 60
		e.Roles = []domain.Role{role}
		out = append(out, e)
	}
	return out, rows.Err()
}

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
