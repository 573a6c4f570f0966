package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpog/internal/domain/models"
)

func recv(t *testing.T, ch <-chan models.NoteEvent) models.NoteEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return models.NoteEvent{}
}

func TestHubDeliversToAllSubscribers(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	ev := models.NoteEvent{Type: models.NoteUpserted, Note: models.WeeklyNote{ID: 1, Body: "late load"}}
	h.Publish(context.Background(), ev)

	assert.Equal(t, ev, recv(t, a))
	assert.Equal(t, ev, recv(t, b))
}

func TestHubCancelUnsubscribes(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)

	h.Publish(context.Background(), models.NoteEvent{Type: models.NoteDeleted})
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	h.buffer = 1
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			h.Publish(context.Background(), models.NoteEvent{Type: models.NoteUpserted})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHubRunWithoutRedisReturns(t *testing.T) {
	h := NewHub(nil)
	h.Run(context.Background())
}
