package deliver

import (
	"context"
	"fmt"

	"github.com/nikstrim/otpgate/internal/otp/entity"
)

// Sender pushes one code to one destination over a single transport.
type Sender interface {
	Send(ctx context.Context, destination, code string) error
}

// Dispatcher routes a code to the sender registered for its channel. Delivery
// is single shot; a failed send surfaces to the caller and the code stays
// verifiable through another channel.
type Dispatcher struct {
	senders map[entity.Channel]Sender
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[entity.Channel]Sender)}
}

// Register binds a sender to a channel, replacing any previous binding.
func (d *Dispatcher) Register(ch entity.Channel, s Sender) {
	d.senders[ch] = s
}

// Deliver sends the code over the requested channel.
func (d *Dispatcher) Deliver(ctx context.Context, ch entity.Channel, destination, code string) error {
	s, ok := d.senders[ch]
	if !ok {
		return fmt.Errorf("no sender registered for channel %s", ch)
	}

	return s.Send(ctx, destination, code)
}
