package repository

import (
	"context"
	"fmt"

	"workshop-planner/internal/domain"
)

// Orders reads card orders waiting for a stage.
type Orders struct {
	db DB
}

func NewOrders(db DB) *Orders { return &Orders{db: db} }

// PendingOrders returns orders whose status marks them as waiting for stage.
// A missing card count reads as zero.
func (r *Orders) PendingOrders(ctx context.Context, stage domain.Stage) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, order_number, COALESCE(card_count, 0), COALESCE(priority_code, ''), order_date
FROM card_orders
WHERE status = $1
ORDER BY order_date, id
`, stage.OrderStatus())
	if err != nil {
		return nil, fmt.Errorf("query %s orders: %w", stage, err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o := domain.Order{Stage: stage}
		if err := rows.Scan(&o.ID, &o.Number, &o.CardCount, &o.PriorityCode, &o.ReferenceDate); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
