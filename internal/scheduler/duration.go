package scheduler

import "workshop-planner/internal/domain"

// Duration is the task length in minutes for an order in a stage.
// Zero-card orders in per-card stages are filtered by the engine, not here.
func (c Config) Duration(stage domain.Stage, cardCount int) int {
	if stage.Policy() == domain.FixedPerOrder {
		return c.FixedScanMinutes
	}
	return cardCount * c.PerCardMinutes
}

// hasWork reports whether the order carries measurable work for the stage.
func hasWork(stage domain.Stage, cardCount int) bool {
	return stage.Policy() == domain.FixedPerOrder || cardCount > 0
}
