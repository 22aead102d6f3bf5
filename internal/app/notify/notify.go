// Package notify publishes and consumes planning.completed events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
)

const RoutingKey = "planning.completed"

type publisher interface {
	PublishPersistent(ctx context.Context, exchange, key string, body []byte) error
}

// Publisher sends a PlanningCompleted event for each committed run.
type Publisher struct {
	mq       publisher
	exchange string
	timeout  time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewPublisher(mq publisher, exchange string, lg *logger.Logger) *Publisher {
	if lg == nil {
		lg = logger.Discard()
	}
	return &Publisher{mq: mq, exchange: exchange, timeout: 5 * time.Second, now: time.Now, log: lg}
}

func (p *Publisher) PlanningCompleted(ctx context.Context, r domain.PlanningResult) error {
	ev := domain.NewPlanningCompleted(r, p.now())
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", RoutingKey, err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.mq.PublishPersistent(ctx, p.exchange, RoutingKey, body); err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKey, err)
	}
	p.log.Debug("event_published", map[string]any{"routing_key": RoutingKey, "run_id": ev.RunID, "plan_date": ev.PlanDate})
	return nil
}

// Subscriber logs every planning event it receives.
type Subscriber struct {
	log *logger.Logger
}

func NewSubscriber(lg *logger.Logger) *Subscriber {
	if lg == nil {
		lg = logger.Discard()
	}
	return &Subscriber{log: lg}
}

// Run handles deliveries until ctx ends or the channel closes.
func (s *Subscriber) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			s.handle(d)
		}
	}
}

func (s *Subscriber) handle(d amqp.Delivery) {
	var ev domain.PlanningCompleted
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		s.log.Error("event_decode_failed", err, map[string]any{"routing_key": d.RoutingKey})
		_ = d.Nack(false, false)
		return
	}
	fields := map[string]any{
		"run_id":        ev.RunID,
		"plan_date":     ev.PlanDate,
		"total_planned": ev.TotalPlanned,
	}
	for _, st := range ev.Stages {
		fields[st.Stage.String()] = st.Planned
	}
	s.log.Info("planning_notification_received", fields)
	_ = d.Ack(false)
}
