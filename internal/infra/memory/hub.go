package memory

import (
	"context"
	"sync"

	"classroom-quiz-service/internal/app"
)

// Hub is an in-process app.EventPublisher that fans events out to per-quiz subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan app.Event]struct{}
	buffer      int
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan app.Event]struct{}),
		buffer:      16,
	}
}

// Subscribe returns a channel of events for quizID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(quizID string) (<-chan app.Event, func()) {
	ch := make(chan app.Event, h.buffer)

	h.mu.Lock()
	if h.subscribers[quizID] == nil {
		h.subscribers[quizID] = make(map[chan app.Event]struct{})
	}
	h.subscribers[quizID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[quizID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, quizID)
		}
	}
	return ch, cancel
}

// Publish never blocks: a full subscriber loses its oldest pending event.
func (h *Hub) Publish(_ context.Context, event app.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[event.QuizID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

// Subscribers reports how many listeners a quiz has.
func (h *Hub) Subscribers(quizID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[quizID])
}
