package events

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryBus_Delivers(t *testing.T) {
	bus := NewMemoryBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	if err := bus.Subscribe(ctx, StreamTransfer, func(e Event) { got <- e }); err != nil {
		t.Fatal(err)
	}

	_ = bus.Publish(ctx, StreamTransfer, Event{Type: EventStateChanged, Payload: map[string]any{"version": 1}})
	_ = bus.Publish(ctx, "events:other", Event{Type: "ignored"})

	select {
	case e := <-got:
		if e.Type != EventStateChanged {
			t.Fatalf("type = %q", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case e := <-got:
		t.Fatalf("unexpected event from another stream: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_UnsubscribeOnCancel(t *testing.T) {
	bus := NewMemoryBus(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	_ = bus.Subscribe(ctx, StreamTransfer, func(Event) {})
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		n := len(bus.subs[StreamTransfer])
		bus.mu.RUnlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("subscriber was not removed after cancel")
}
