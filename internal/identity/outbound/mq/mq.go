package mq

import (
	"context"
	"encoding/json"

	"github.com/nikstrim/otpgate/internal/identity/entity"
	"github.com/nikstrim/otpgate/internal/pkg/instrument"
	"github.com/nikstrim/otpgate/internal/pkg/messaging"
	"go.opentelemetry.io/otel/trace"
)

// MQ publishes identity audit events to the shared audit topic.
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
	return m.ins.Tracer("identity.outbound.mq").Start(ctx, name)
}

func (m *MQ) PublishLoggedIn(ctx context.Context, evt entity.LoginEvent) (err error) {
	ctx, span := m.startSpan(ctx, "PublishLoggedIn")
	defer span.End()

	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = m.pub.Publish(ctx, m.topic, messaging.OutgoingMessage{Body: body})
	return err
}
