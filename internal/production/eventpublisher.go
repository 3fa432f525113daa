package production

import (
	"context"

	"github.com/comalice/hsi"
)

// PublishedEvent bundles an event with the id of the interpreter that raised it.
type PublishedEvent struct {
	Event         hsi.Event
	InterpreterID string
}

// EventPublisher forwards events an interpreter processes to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, event hsi.Event, interpreterID string) error
}

// ChannelPublisher is a stdlib-only implementation that forwards events to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch chan<- PublishedEvent
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event hsi.Event, interpreterID string) error {
	select {
	case p.ch <- PublishedEvent{Event: event, InterpreterID: interpreterID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
