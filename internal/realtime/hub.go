// Package realtime fans notification payloads out to live stream connections.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-subscriber queue length used when NewHub gets a non-positive size.
const DefaultBuffer = 16

// Publisher pushes an encoded payload to every live connection.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Subscriber is one live connection registered with a Hub.
type Subscriber struct {
	id     uint64
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// C delivers payloads until the subscriber is unregistered.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// ID identifies the subscriber within its hub.
func (s *Subscriber) ID() uint64 { return s.id }

// offer enqueues p without blocking. It reports false when the buffer is full or the subscriber is closed.
func (s *Subscriber) offer(p []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- p:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Hub is the registry of live connections. It is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID atomic.Uint64
	buffer int
	log    zerolog.Logger
}

// NewHub creates an empty hub whose subscribers queue up to buffer payloads.
func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]*Subscriber),
		buffer: buffer,
		log:    log,
	}
}

var _ Publisher = (*Hub)(nil)

// Register adds a new subscriber.
func (h *Hub) Register() *Subscriber {
	s := &Subscriber{id: h.nextID.Add(1), ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()
	h.log.Debug().Str("event", "subscriber_registered").Uint64("subscriber", s.id).Msg("stream subscriber registered")
	return s
}

// Unregister removes s and closes its channel. Calling it twice is a no-op.
func (h *Hub) Unregister(s *Subscriber) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	h.mu.Unlock()
	s.close()
	if ok {
		h.log.Debug().Str("event", "subscriber_unregistered").Uint64("subscriber", s.id).Msg("stream subscriber unregistered")
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Fanout offers payload to every subscriber registered at call time and returns how many accepted it.
// Subscribers that cannot accept are unregistered.
func (h *Hub) Fanout(payload []byte) int {
	h.mu.RLock()
	snapshot := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range snapshot {
		if s.offer(payload) {
			delivered++
			continue
		}
		h.log.Warn().Str("event", "subscriber_dropped").Uint64("subscriber", s.id).Msg("stream subscriber too slow, dropping")
		h.Unregister(s)
	}
	return delivered
}

// Publish delivers payload to local subscribers.
func (h *Hub) Publish(_ context.Context, payload []byte) error {
	h.Fanout(payload)
	return nil
}

// Close unregisters every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*Subscriber)
	h.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}
