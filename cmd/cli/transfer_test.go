package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/xrp-transfer/backend/internal/events"
)

func TestStatusPrinter_PrintsChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	p := &statusPrinter{w: &buf}
	ctx := context.Background()

	for _, msg := range []string{"Connecting to wallet...", "Connecting to wallet...", "", "Wallet connected successfully!"} {
		_ = p.Publish(ctx, events.StreamTransfer, events.Event{
			Type:    events.EventStateChanged,
			Payload: map[string]any{"status_message": msg},
		})
	}

	want := "Connecting to wallet...\nWallet connected successfully!\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
