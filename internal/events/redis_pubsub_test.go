package events

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestRedisPublisher_ReturnsPublishError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	p := NewRedisPublisher(client, zap.NewNop())
	err := p.Publish(context.Background(), StreamTransfer, Event{Type: EventStateChanged})
	if err == nil {
		t.Fatal("expected publish error from unreachable redis")
	}
}
