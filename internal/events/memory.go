package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const memoryBufferSize = 64

// MemoryBus is an in-process Publisher and Subscriber, used when no Redis
// is configured. Slow subscribers drop events rather than block publishers.
type MemoryBus struct {
	log  *zap.Logger
	mu   sync.RWMutex
	subs map[string][]chan Event
}

func NewMemoryBus(log *zap.Logger) *MemoryBus {
	return &MemoryBus{log: log, subs: make(map[string][]chan Event)}
}

func (b *MemoryBus) Publish(ctx context.Context, stream string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[stream] {
		select {
		case ch <- event:
		default:
			b.log.Warn("subscriber buffer full, dropping event",
				zap.String("stream", stream),
				zap.String("type", event.Type),
			)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	ch := make(chan Event, memoryBufferSize)

	b.mu.Lock()
	b.subs[stream] = append(b.subs[stream], ch)
	b.mu.Unlock()

	go func() {
		defer b.unsubscribe(stream, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-ch:
				handler(event)
			}
		}
	}()

	return nil
}

func (b *MemoryBus) unsubscribe(stream string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[stream]
	for i, c := range subs {
		if c == ch {
			b.subs[stream] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[stream]) == 0 {
		delete(b.subs, stream)
	}
}
