// Package live pushes new comments to clients watching an item thread.
package live

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

const sendBuffer = 32

type Subscription struct {
	topic string
	send  chan []byte
}

// C yields JSON encoded messages. It is closed when the subscription ends,
// either by Unsubscribe or because the subscriber fell behind.
func (s *Subscription) C() <-chan []byte { return s.send }

type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	log    logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		log:    log,
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{topic: topic, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// remove requires h.mu held for writing.
func (h *Hub) remove(sub *Subscription) {
	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}

// Broadcast never blocks: a subscriber whose buffer is full is dropped.
func (h *Hub) Broadcast(topic string, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.WithError(err).WithField("topic", topic).Error("live: encode message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[topic] {
		select {
		case sub.send <- msg:
		default:
			h.log.WithField("topic", topic).Warn("live: dropping slow subscriber")
			h.remove(sub)
		}
	}
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
