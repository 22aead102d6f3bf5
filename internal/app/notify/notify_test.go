package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
)

type fakeMQ struct {
	exchange, key string
	body          []byte
	err           error
}

func (f *fakeMQ) PublishPersistent(_ context.Context, exchange, key string, body []byte) error {
	f.exchange, f.key, f.body = exchange, key, body
	return f.err
}

func TestPublisher_PlanningCompleted(t *testing.T) {
	mq := &fakeMQ{}
	p := NewPublisher(mq, "planning_fanout", nil)
	p.now = func() time.Time { return time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC) }

	err := p.PlanningCompleted(context.Background(), domain.PlanningResult{
		RunID:        "run-1",
		PlanDate:     "2026-10-19",
		TotalPlanned: 3,
		Stages: []domain.StageSummary{
			{Stage: domain.StageGrading, Planned: 2, Skipped: 1},
			{Stage: domain.StageScanning, Planned: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "planning_fanout", mq.exchange)
	require.Equal(t, RoutingKey, mq.key)

	var ev domain.PlanningCompleted
	require.NoError(t, json.Unmarshal(mq.body, &ev))
	require.Equal(t, "run-1", ev.RunID)
	require.Equal(t, 3, ev.TotalPlanned)
	require.Len(t, ev.Stages, 2)
	require.Equal(t, domain.StageGrading, ev.Stages[0].Stage)
	require.Equal(t, 1, ev.Stages[0].Skipped)
}

func TestPublisher_WrapsBrokerError(t *testing.T) {
	p := NewPublisher(&fakeMQ{err: errors.New("NACK")}, "planning_fanout", nil)
	err := p.PlanningCompleted(context.Background(), domain.PlanningResult{})
	require.ErrorContains(t, err, "NACK")
}

type fakeAck struct {
	acked, nacked int
}

func (f *fakeAck) Ack(uint64, bool) error        { f.acked++; return nil }
func (f *fakeAck) Nack(uint64, bool, bool) error { f.nacked++; return nil }
func (f *fakeAck) Reject(uint64, bool) error     { return nil }

func TestSubscriber_Run(t *testing.T) {
	var buf bytes.Buffer
	s := NewSubscriber(logger.NewWithWriter("notification-subscriber", &buf))
	ack := &fakeAck{}

	good, err := json.Marshal(domain.PlanningCompleted{RunID: "run-1", PlanDate: "2026-10-19", TotalPlanned: 4,
		Stages: []domain.StageCount{{Stage: domain.StageCertification, Planned: 4}}})
	require.NoError(t, err)

	ch := make(chan amqp.Delivery, 2)
	ch <- amqp.Delivery{Acknowledger: ack, Body: good}
	ch <- amqp.Delivery{Acknowledger: ack, Body: []byte("{")}
	close(ch)

	err = s.Run(context.Background(), ch)
	require.Error(t, err)
	require.Equal(t, 1, ack.acked)
	require.Equal(t, 1, ack.nacked)
	require.Contains(t, buf.String(), `"action":"planning_notification_received"`)
	require.Contains(t, buf.String(), `"certification":4`)
}

func TestSubscriber_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, NewSubscriber(nil).Run(ctx, make(chan amqp.Delivery)))
}
