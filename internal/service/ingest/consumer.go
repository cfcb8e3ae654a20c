// Package ingest is the Kafka ingestion collaborator: it consumes
// price ticks off a topic and records them into the registry. Each
// handled message is marked with session.MarkMessage; with sarama's
// default auto-commit the group commits those offsets, so a restarted
// consumer resumes after the last marked message and does not re-feed
// earlier ticks into the registry, which starts empty after a restart.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/symrange/symrange/internal/entity"
	"github.com/symrange/symrange/internal/event"
	"github.com/symrange/symrange/internal/registry"
	"github.com/symrange/symrange/pkg/ebus"
)

// Consumer is an app.Service wrapping a sarama consumer group.
type Consumer struct {
	group    sarama.ConsumerGroup
	handler  handler
	registry *registry.Registry
}

// NewConsumer builds a Consumer reading topic as member of group,
// recording every decoded tick into reg and emitting TickReceived /
// TickRejected on eBus.
func NewConsumer(client sarama.Client, topic, group string, reg *registry.Registry, eBus *ebus.EBus) (*Consumer, error) {
	cg, err := sarama.NewConsumerGroupFromClient(group, client)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Consumer{
		group: cg,
		handler: handler{
			topic:    topic,
			registry: reg,
			eBus:     eBus,
		},
		registry: reg,
	}, nil
}

func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)

	go func() {
		for {
			if err := c.group.Consume(ctx, c.handler.topics(), c.handler); err != nil {
				errc <- err
				return
			}
			if ctx.Err() != nil {
				errc <- ctx.Err()
				return
			}
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("ingest consumer: %w", err)
	case err := <-c.group.Errors():
		return fmt.Errorf("ingest consumer group: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("ingest consumer: %w", ctx.Err())
	}
}

var _ sarama.ConsumerGroupHandler = handler{}

type handler struct {
	topic    string
	registry *registry.Registry
	eBus     *ebus.EBus
}

func (h handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h handler) topics() []string { return []string{h.topic} }

func (h handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handle(session.Context(), msg); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("claim handle: %w", err)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h handler) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var tick entity.Tick
	if err := json.Unmarshal(message.Value, &tick); err != nil {
		return fmt.Errorf("unmarshal tick: %w", err)
	}

	if err := h.registry.Record(tick.Symbol, []float64{tick.Float64()}); err != nil {
		return h.eBus.Emit(ctx, event.TickRejected{Symbol: tick.Symbol, Reason: err.Error()})
	}

	return h.eBus.Emit(ctx, event.TickReceived{Tick: tick})
}
