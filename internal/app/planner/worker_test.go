package planner

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
	"workshop-planner/internal/scheduler"
)

type fakeRunner struct {
	dates []time.Time
	clean []bool
	err   error
}

func (f *fakeRunner) Run(_ context.Context, date time.Time, clean bool) (domain.PlanningResult, error) {
	f.dates = append(f.dates, date)
	f.clean = append(f.clean, clean)
	return domain.PlanningResult{PlanDate: date.Format(domain.DateLayout), TotalPlanned: 2}, f.err
}

func TestNewWorker_InvalidSpec(t *testing.T) {
	_, err := NewWorker(&fakeRunner{}, "every morning", time.UTC, true, nil)
	require.Error(t, err)
}

func TestWorker_NextHonoursWeekdaysAndZone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	w, err := NewWorker(&fakeRunner{}, "0 0 7 * * MON-FRI", paris, true, nil)
	require.NoError(t, err)

	// Friday 2026-10-23 08:00 Paris -> Monday 07:00 Paris
	next := w.Next(time.Date(2026, 10, 23, 8, 0, 0, 0, paris))
	require.True(t, next.Equal(time.Date(2026, 10, 26, 7, 0, 0, 0, paris)), "got %s", next)
}

func TestWorker_RunOnceUsesLocalDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	runner := &fakeRunner{}
	w, err := NewWorker(runner, "@daily", tokyo, false, nil)
	require.NoError(t, err)
	// 22:00 UTC on the 19th is already the 20th in Tokyo
	w.now = func() time.Time { return time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC) }

	w.RunOnce(context.Background())

	require.Len(t, runner.dates, 1)
	require.Equal(t, "2026-10-20", runner.dates[0].Format(domain.DateLayout))
	require.False(t, runner.clean[0])
}

func TestWorker_RunOnceLogsContention(t *testing.T) {
	var buf bytes.Buffer
	runner := &fakeRunner{err: fmt.Errorf("%w: 2026-10-19", scheduler.ErrRunInProgress)}
	w, err := NewWorker(runner, "@daily", time.UTC, true, logger.NewWithWriter("planner", &buf))
	require.NoError(t, err)

	w.RunOnce(context.Background())
	require.Contains(t, buf.String(), `"action":"planner_run_skipped"`)
	require.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	w, err := NewWorker(&fakeRunner{}, "@daily", time.UTC, true, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
