package scheduler

import (
	"strings"

	"workshop-planner/internal/domain"
)

var priorityRanks = map[string]int{
	domain.PriorityExcelsior: 5,
	domain.PriorityFastPlus:  4,
	domain.PriorityFast:      3,
	domain.PriorityClassic:   2,
	domain.PriorityEconomy:   1,
}

// DefaultPriority is used for missing or unknown codes.
const DefaultPriority = domain.PriorityClassic

// NormalizePriority returns the canonical code and whether the input was recognised.
func NormalizePriority(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := priorityRanks[c]; ok {
		return c, true
	}
	return DefaultPriority, false
}

// Rank maps a priority code to its urgency; higher is more urgent.
// Unknown codes rank as Classic.
func Rank(code string) int {
	c, _ := NormalizePriority(code)
	return priorityRanks[c]
}
