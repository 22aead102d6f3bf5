package scheduler

import (
	"time"

	"workshop-planner/internal/common/config"
	"workshop-planner/internal/domain"
)

type Config struct {
	PerCardMinutes   int
	FixedScanMinutes int
	BreakMinutes     int
	DayStart         domain.Clock
	DayEnd           domain.Clock
	Location         *time.Location
}

func DefaultConfig() Config {
	return Config{
		PerCardMinutes:   3,
		FixedScanMinutes: 5,
		BreakMinutes:     5,
		DayStart:         domain.Clock{Hour: 9},
		DayEnd:           domain.Clock{Hour: 18},
		Location:         time.UTC,
	}
}

// ConfigFrom converts the validated application settings.
func ConfigFrom(p config.Planning) (Config, error) {
	start, end, err := p.Clocks()
	if err != nil {
		return Config{}, err
	}
	return Config{
		PerCardMinutes:   p.PerCardMinutes,
		FixedScanMinutes: p.FixedScanMinutes,
		BreakMinutes:     p.BreakMinutes,
		DayStart:         start,
		DayEnd:           end,
		Location:         p.Location(),
	}, nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
