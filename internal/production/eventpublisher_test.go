// Tests for ChannelPublisher delivery.
package production

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/hsi"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan PublishedEvent, 10)
	p := NewChannelPublisher(ch)

	event := hsi.Event{Name: "test-event", Data: "data"}

	ctx := context.Background()
	err := p.Publish(ctx, event, "test-machine")
	if err != nil {
		t.Errorf("Publish failed: %v", err)
	}

	select {
	case got := <-ch:
		if got.Event.Name != event.Name {
			t.Errorf("Event type mismatch: got %q, want %q", got.Event.Name, event.Name)
		}
		if got.InterpreterID != "test-machine" {
			t.Errorf("InterpreterID mismatch: got %q, want %q", got.InterpreterID, "test-machine")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No event delivered")
	}
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan PublishedEvent, 1)
	p := NewChannelPublisher(ch)
	ch <- PublishedEvent{} // Fill buffer

	event := hsi.Event{Name: "drop-test"}

	ctx := context.Background()
	err := p.Publish(ctx, event, "test")
	if err != nil {
		t.Errorf("Publish on full channel failed: %v", err)
	}
	// Should drop silently
}

func TestChannelPublisher_Close(t *testing.T) {
	ch := make(chan PublishedEvent, 1)
	p := NewChannelPublisher(ch)

	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Channel closed successfully
}

func TestChannelPublisher_Integration_PublishMetadata(t *testing.T) {
	publishCh := make(chan PublishedEvent, 10)
	publisher := NewChannelPublisher(publishCh)

	event := hsi.Event{Name: "TRANSITION"}

	ctx := context.Background()
	err := publisher.Publish(ctx, event, "integration-test")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-publishCh:
		if got.InterpreterID != "integration-test" {
			t.Errorf("InterpreterID mismatch: got %q, want %q", got.InterpreterID, "integration-test")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No published event received")
	}
}
