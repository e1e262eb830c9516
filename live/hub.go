// Package live streams public post activity to connected browsers over
// Server-Sent Events, so open feeds can refresh like counters and show new
// posts without polling.
// This file, `hub.go`, defines the Hub that tracks subscribers and fans events
// out to them.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/user/bloghub-go/posts"
)

// SSE event names.
const (
	EventPostCreated = "post.created"
	EventPostLikes   = "post.likes"
	EventPostDeleted = "post.deleted"
)

// Event is one Server-Sent Event. Data is a JSON document.
type Event struct {
	Name string
	Data string
}

// NewEvent encodes payload as the data of an event called name.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	return Event{Name: name, Data: string(data)}, nil
}

// PostCreatedPayload announces a new public post.
type PostCreatedPayload struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Username string `json:"username"`
}

// PostLikesPayload carries the new like counter of a public post.
type PostLikesPayload struct {
	ID         string `json:"_id"`
	LikesCount int    `json:"likes_count"`
}

// PostDeletedPayload announces a removed public post.
type PostDeletedPayload struct {
	ID string `json:"_id"`
}

// Hub manages SSE subscribers. Each subscriber has its own buffered channel;
// a subscriber whose buffer is full misses the event instead of slowing down
// the publisher.
type Hub struct {
	clients map[string]chan Event
	buffer  int
	mu      sync.RWMutex
}

// NewHub creates a Hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{clients: make(map[string]chan Event), buffer: buffer}
}

// Subscribe registers a subscriber and returns its id and event channel. The
// channel is closed by Unsubscribe.
func (h *Hub) Subscribe() (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, h.buffer)
	h.clients[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast offers ev to every subscriber without blocking and returns how many
// received it.
func (h *Hub) Broadcast(ev Event) int {
	// The read lock is held while sending so Unsubscribe cannot close a channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, ch := range h.clients {
		select {
		case ch <- ev:
			delivered++
		default:
			log.Printf("[live] subscriber %s is not keeping up, dropping %s", id, ev.Name)
		}
	}
	return delivered
}

var _ posts.Events = (*Hub)(nil)

// PostCreated broadcasts new public posts. Private posts are never streamed.
func (h *Hub) PostCreated(_ context.Context, post *posts.Post) error {
	if post.Visibility == posts.VisibilityPrivate {
		return nil
	}
	return h.publish(EventPostCreated, PostCreatedPayload{
		ID:       post.ID,
		Title:    post.Title,
		Category: string(post.Category),
		Username: post.Username,
	})
}

// PostToggled broadcasts the like counter of public posts. Saves are personal
// and are not streamed.
func (h *Hub) PostToggled(_ context.Context, post *posts.Post, _ string, kind posts.ToggleKind, _ bool) error {
	if kind != posts.ToggleLike || post.Visibility == posts.VisibilityPrivate {
		return nil
	}
	return h.publish(EventPostLikes, PostLikesPayload{ID: post.ID, LikesCount: post.LikesCount})
}

// PostDeleted broadcasts the removal of public posts.
func (h *Hub) PostDeleted(_ context.Context, post *posts.Post) error {
	if post.Visibility == posts.VisibilityPrivate {
		return nil
	}
	return h.publish(EventPostDeleted, PostDeletedPayload{ID: post.ID})
}

func (h *Hub) publish(name string, payload any) error {
	ev, err := NewEvent(name, payload)
	if err != nil {
		return err
	}
	h.Broadcast(ev)
	return nil
}
