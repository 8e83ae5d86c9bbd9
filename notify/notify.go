// Package notify fans sale and stock events out to connected dashboards.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	SaleRegistered EventType = "sale.registered"
	SaleReverted   EventType = "sale.reverted"
	StockLow       EventType = "stock.low"
)

type Event struct {
	ID   string      `json:"id"`
	Type EventType   `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

func NewEvent(typ EventType, data interface{}) Event {
	return Event{ID: uuid.NewString(), Type: typ, At: time.Now().UTC(), Data: data}
}

// Subscriber is one connected client; *websocket.Conn satisfies it.
type Subscriber interface {
	WriteJSON(v interface{}) error
	Close() error
}

// deadliner is implemented by subscribers that can bound a single write.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

const (
	// queueSize is how many events a subscriber may fall behind before it
	// is dropped.
	queueSize = 32
	writeWait = 10 * time.Second
)

// client pairs a subscriber with its outgoing queue. Only the hub closes
// send, and only while holding its mutex.
type client struct {
	sub  Subscriber
	send chan Event
}

// Hub fans events out without waiting on any subscriber: each one has a
// buffered queue drained by its own writer goroutine.
type Hub struct {
	mu     sync.Mutex
	subs   map[Subscriber]*client
	closed bool
	log    logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{subs: map[Subscriber]*client{}, log: log}
}

// Subscribe registers s and reports whether the hub still accepts
// subscribers.
func (h *Hub) Subscribe(s Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if _, ok := h.subs[s]; ok {
		return true
	}

	c := &client{sub: s, send: make(chan Event, queueSize)}
	h.subs[s] = c
	go h.writeLoop(c)

	return true
}

// Unsubscribe stops delivery to s. The connection itself is left to its
// owner.
func (h *Hub) Unsubscribe(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(c.send)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Publish queues e for every subscriber and returns at once. A subscriber
// whose queue is full is closed and dropped.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s, c := range h.subs {
		select {
		case c.send <- e:
		default:
			h.log.WithField("event", e.Type).Debug("dropping slow subscriber")
			h.drop(s, c)
		}
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(s Subscriber, c *client) {
	delete(h.subs, s)
	close(c.send)
	s.Close()
}

func (h *Hub) writeLoop(c *client) {
	for e := range c.send {
		if d, ok := c.sub.(deadliner); ok {
			d.SetWriteDeadline(time.Now().Add(writeWait))
		}

		if err := c.sub.WriteJSON(e); err != nil {
			h.log.WithError(err).WithField("event", e.Type).Debug("dropping subscriber")

			h.mu.Lock()
			if h.subs[c.sub] == c {
				h.drop(c.sub, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for s, c := range h.subs {
		h.drop(s, c)
	}
}
