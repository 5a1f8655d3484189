package mq

import (
	"context"
	"encoding/json"

	"github.com/nikstrim/otpgate/internal/otp/entity"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
	"go.opentelemetry.io/otel/trace"
)

type MQ struct {
	pub   messaging.Publisher
	topic string
	ins   instrument.Instrumentation
}

func NewMQ(pub messaging.Publisher, topic string, ins instrument.Instrumentation) *MQ {
	return &MQ{
		pub:   pub,
		topic: topic,
		ins:   ins,
	}
}

func (m *MQ) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("otp.outbound.mq").Start(ctx, name)
}

// PublishIssued emits an otp.issued audit event.
func (m *MQ) PublishIssued(ctx context.Context, ev entity.Event) (err error) {
	ctx, span := m.startSpan(ctx, "PublishIssued")
	defer span.End()

	ev.Action = entity.ActionIssued

	return m.publish(ctx, ev)
}

// PublishVerified emits an otp.verified audit event with the outcome.
func (m *MQ) PublishVerified(ctx context.Context, ev entity.Event) (err error) {
	ctx, span := m.startSpan(ctx, "PublishVerified")
	defer span.End()

	ev.Action = entity.ActionVerified

	return m.publish(ctx, ev)
}

func (m *MQ) publish(ctx context.Context, ev entity.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = m.pub.Publish(ctx, m.topic, messaging.OutgoingMessage{Body: body})

	return err
}
