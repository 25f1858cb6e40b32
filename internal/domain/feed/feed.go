// Package feed carries change notifications between mutation paths and the
// snapshot loader. Signals carry no payload contract beyond "something
// changed": every delivery triggers a full refetch, so delivery, ordering,
// and deduplication guarantees are not needed.
package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Change kinds published on the feed.
const (
	KindEventsChanged = "events_changed"
	KindRSVPChanged   = "rsvp_changed"
	KindOrderChanged  = "order_changed"
)

// ChangeEvent is one signal on the feed.
type ChangeEvent struct {
	Kind      string      `json:"kind"`
	EntityID  uuid.UUID   `json:"entity_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}

// NewChange builds a timestamped change event.
func NewChange(kind string, entityID uuid.UUID) *ChangeEvent {
	return &ChangeEvent{Kind: kind, EntityID: entityID, Timestamp: time.Now().UTC()}
}

// Hub is the in-process fanout for change events. It backs local listeners;
// cross-process delivery goes through the Redis channel in the cache layer.
type Hub struct {
	mutex      sync.Mutex
	listeners  map[string]chan *ChangeEvent
	bufferSize int
	logger     *logrus.Logger
}

// NewHub creates a hub whose subscriber channels buffer up to bufferSize
// pending signals.
func NewHub(bufferSize int, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Hub{
		listeners:  make(map[string]chan *ChangeEvent),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function that removes the registration and closes the channel.
func (h *Hub) Subscribe() (<-chan *ChangeEvent, func()) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	ch := make(chan *ChangeEvent, h.bufferSize)
	id := uuid.New().String()
	h.listeners[id] = ch

	cancel := func() {
		h.mutex.Lock()
		defer h.mutex.Unlock()
		if existing, ok := h.listeners[id]; ok {
			delete(h.listeners, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers a change event to every listener without blocking. A
// listener whose buffer is full misses the signal; the next one triggers
// the same refetch, so nothing is lost beyond latency. The mutex is held
// across the sends so a concurrent cancel cannot close a channel while it
// is being sent on; the sends never block, so the critical section stays
// short.
func (h *Hub) Publish(event *ChangeEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
			h.logger.WithFields(logrus.Fields{
				"kind":      event.Kind,
				"entity_id": event.EntityID,
			}).Warn("change listener buffer full, signal dropped")
		}
	}
}
