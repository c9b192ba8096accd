package fanout

import (
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/fleetlive/fleetlive/pkg/redis_client"
	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/rs/zerolog/log"
)

const queueName = "fanout-queue"

const prefetchLimit = 100
const pollDuration = 500 * time.Millisecond

// PublishMetrics is an optional hook for the publish counter.
type PublishMetrics interface {
	EventPublished()
}

// QueuePublisher puts events on the fan-out queue. The queue decouples the
// driver-facing ingestion path from subscriber delivery, and is the seam
// for running hubs on multiple instances later.
type QueuePublisher struct {
	queue   rmq.Queue
	metrics PublishMetrics
}

func NewQueuePublisher(metrics PublishMetrics) (*QueuePublisher, error) {
	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		return nil, err
	}

	return &QueuePublisher{
		queue:   queue,
		metrics: metrics,
	}, nil
}

func (p *QueuePublisher) Publish(event transit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.queue.PublishBytes(payload); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.EventPublished()
	}

	return nil
}

// StartConsumer begins draining the fan-out queue into the local hub. A
// single consumer keeps queue order, so viewers see each vehicle's updates
// in publish order.
func StartConsumer(hub *Hub) error {
	log.Info().Msg("Starting fan-out consumer")

	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		return err
	}

	if err := queue.StartConsuming(prefetchLimit, pollDuration); err != nil {
		return err
	}

	_, err = queue.AddConsumer("fanout-consumer", NewConsumer(hub))
	return err
}

type Consumer struct {
	hub *Hub
}

func NewConsumer(hub *Hub) *Consumer {
	return &Consumer{hub: hub}
}

func (c *Consumer) Consume(delivery rmq.Delivery) {
	var event transit.Event
	if err := json.Unmarshal([]byte(delivery.Payload()), &event); err != nil {
		log.Error().Err(err).Msg("Failed to decode fan-out event")

		if err := delivery.Reject(); err != nil {
			log.Error().Err(err).Msg("Failed to reject fan-out event")
		}
		return
	}

	c.hub.Publish(event)

	if err := delivery.Ack(); err != nil {
		log.Error().Err(err).Msg("Failed to ack fan-out event")
	}
}
