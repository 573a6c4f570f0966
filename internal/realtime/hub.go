// Package realtime fans note changes out to SSE subscribers. With Redis
// configured, events travel through a pub/sub channel so every instance
// sees every change; otherwise delivery is in-process.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"tpog/internal/domain/models"
	"tpog/internal/utils"
)

const DefaultChannel = "tpog:notes"

type Hub struct {
	rdb     *redis.Client
	channel string
	buffer  int

	mu     sync.RWMutex
	subs   map[uint64]chan models.NoteEvent
	nextID uint64
}

// NewHub returns a hub; rdb may be nil.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb:     rdb,
		channel: DefaultChannel,
		buffer:  16,
		subs:    map[uint64]chan models.NoteEvent{},
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// once the caller stops reading.
func (h *Hub) Subscribe() (<-chan models.NoteEvent, func()) {
	ch := make(chan models.NoteEvent, h.buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish sends ev to every subscriber. When the Redis publish fails the
// event is still delivered locally.
func (h *Hub) Publish(ctx context.Context, ev models.NoteEvent) {
	if h.rdb != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			err = h.rdb.Publish(ctx, h.channel, payload).Err()
		}
		if err == nil {
			return
		}
		utils.LogWarn("", "realtime", "publish", "redis publish failed, delivering locally: "+err.Error())
	}
	h.broadcast(ev)
}

// Run relays Redis messages to local subscribers until ctx is done. It is a
// no-op without Redis.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, h.channel)
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev models.NoteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				utils.LogWarn("", "realtime", "relay", "bad payload: "+err.Error())
				continue
			}
			h.broadcast(ev)
		}
	}
}

// broadcast never blocks; a subscriber with a full buffer misses the event.
func (h *Hub) broadcast(ev models.NoteEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			utils.LogWarn("", "realtime", "broadcast", "slow subscriber dropped an event")
		}
	}
}
