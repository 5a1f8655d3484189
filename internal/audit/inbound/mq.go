package inbound

import (
	"context"

	"github.com/nikstrim/otpgate/internal/pkg/goroutine"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
)

type uc interface {
	Record(ctx context.Context, body []byte) error
}

// Consumer subscribes to the audit topic and persists every event. It joins
// a shared queue group so multiple instances split the stream.
type Consumer struct {
	consumer messaging.Consumer
	manager  *goroutine.Manager
	topic    string
	uc       uc
}

func NewConsumer(consumer messaging.Consumer, manager *goroutine.Manager, topic string, uc uc) *Consumer {
	return &Consumer{
		consumer: consumer,
		manager:  manager,
		topic:    topic,
		uc:       uc,
	}
}

// Start launches the blocking consume loop through the goroutine manager.
// It runs until the context is canceled.
func (c *Consumer) Start(ctx context.Context) {
	c.manager.Go(ctx, func(ctx context.Context) error {
		return c.consumer.Consume(ctx, c.topic, c.handle,
			messaging.WithChannel("audit"),
			messaging.WithQueueGroup("audit"),
			messaging.WithAutoAck(true),
		)
	})
}

func (c *Consumer) handle(ctx context.Context, msg messaging.Message) error {
	return c.uc.Record(ctx, msg.Body())
}
