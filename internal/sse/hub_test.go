package sse

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe()
	defer cancel()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Publish(Event{Type: "scan", Data: []byte(`{"url":"example.com"}`)})

	got := <-ch
	assert.Equal(t, "scan", got.Type)
	assert.JSONEq(t, `{"url":"example.com"}`, string(got.Data))
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe()
	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())

	// The channel is closed on cancel; the publisher no longer sees it.
	_, open := <-ch
	assert.False(t, open)

	hub.Publish(Event{Type: "scan"})
}

func TestHubDropsForSlowClients(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Fill the buffer past capacity; Publish must not block.
	for i := 0; i < cap(ch)+10; i++ {
		hub.Publish(Event{Type: "scan"})
	}
	assert.Equal(t, cap(ch), len(ch))
}
