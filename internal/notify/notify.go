package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Message is one alert about an endpoint status change.
type Message struct {
	Title string
	Text  string
	// Resolved marks recovery messages.
	Resolved bool
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Multi fans a message out to every notifier and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, msg Message) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, msg))
	}
	return err
}

// Nop discards messages; used when no channel is configured.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }
