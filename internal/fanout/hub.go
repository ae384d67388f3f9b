package fanout

import (
	"encoding/json"
	"io"
	"sync"
)

// Subscriber is one live connection. Writes are serialized through the
// subscriber's own mutex so interleaved publishes cannot corrupt a frame.
type Subscriber struct {
	mu      sync.Mutex
	encoder *json.Encoder
	failed  bool
}

func newSubscriber(w io.Writer) *Subscriber {
	return &Subscriber{encoder: json.NewEncoder(w)}
}

func (s *Subscriber) writeEvent(event Event) error {
	return s.writeJSON(event)
}

func (s *Subscriber) writeJSON(frame any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return io.ErrClosedPipe
	}
	if err := s.encoder.Encode(frame); err != nil {
		s.failed = true
		return err
	}
	return nil
}

// Hub routes events from publishers to topic subscribers.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Subscriber]struct{})}
}

// NewSubscriber registers a connection writing JSON frames to w. The
// subscriber receives nothing until it subscribes to a topic.
func (h *Hub) NewSubscriber(w io.Writer) *Subscriber {
	return newSubscriber(w)
}

// Subscribe adds the subscriber to a topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(sub *Subscriber, topic string) {
	if sub == nil || topic == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.topics[topic] = set
	}
	set[sub] = struct{}{}
}

// Unsubscribe removes the subscriber from a topic.
func (h *Hub) Unsubscribe(sub *Subscriber, topic string) {
	if sub == nil || topic == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromTopic(sub, topic)
}

// Remove detaches the subscriber from every topic. Called on disconnect and
// after a failed write.
func (h *Hub) Remove(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.topics {
		h.removeFromTopic(sub, topic)
	}
}

func (h *Hub) removeFromTopic(sub *Subscriber, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers the event to every subscriber of the listed topics. A
// subscriber on several of the topics receives the event once. Failed
// subscribers are dropped; delivery errors are never surfaced to the caller.
func (h *Hub) Publish(event Event, topics ...string) {
	h.mu.Lock()
	recipients := make(map[*Subscriber]struct{})
	for _, topic := range topics {
		for sub := range h.topics[topic] {
			recipients[sub] = struct{}{}
		}
	}
	h.mu.Unlock()

	for sub := range recipients {
		if err := sub.writeEvent(event); err != nil {
			h.Remove(sub)
		}
	}
}
