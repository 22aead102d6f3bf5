package domain

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day, minute precision.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(v string) (Clock, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q, want HH:MM: %w", v, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func MustClock(v string) Clock {
	c, err := ParseClock(v)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

// On places the clock on the calendar day of d, in d's location.
func (c Clock) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, c.Hour, c.Minute, 0, 0, d.Location())
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

const DateLayout = "2006-01-02"

func ParseDate(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, v, loc)
}
