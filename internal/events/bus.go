package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

type EventType string

const (
	EventRouteSuccess   EventType = "route_success"
	EventRouteError     EventType = "route_error"
	EventStreamStarted  EventType = "stream_started"
	EventUsageCleared   EventType = "usage_cleared"
	EventProjectCreated EventType = "project_created"
)

// ParseType returns the EventType named by s, or false if s names none.
func ParseType(s string) (EventType, bool) {
	switch t := EventType(s); t {
	case EventRouteSuccess, EventRouteError, EventStreamStarted, EventUsageCleared, EventProjectCreated:
		return t, true
	}
	return "", false
}

// Event describes one routing, usage or project outcome. Seq is assigned by
// the bus and increases monotonically per bus.
type Event struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	TaskType   string  `json:"task_type,omitempty"`
	ModelID    string  `json:"model_id,omitempty"`
	ProviderID string  `json:"provider_id,omitempty"`
	LatencyMs  float64 `json:"latency_ms,omitempty"`
	CostUSD    float64 `json:"cost_usd,omitempty"`
	ErrorKind  string  `json:"error_kind,omitempty"`
	ErrorMsg   string  `json:"error_msg,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	RequestID  string  `json:"request_id,omitempty"`
	ProjectID  string  `json:"project_id,omitempty"`
}

func (e *Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Subscriber receives matching events on C.
type Subscriber struct {
	C       chan Event
	done    chan struct{}
	types   map[EventType]bool
	dropped atomic.Uint64
}

func (s *Subscriber) wants(t EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// Done is closed once the subscriber is removed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Dropped counts events discarded because C was full.
func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	seq         atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe registers a subscriber with a buffer of bufSize (64 if <= 0).
// With no types it receives every event.
func (b *Bus) Subscribe(bufSize int, types ...EventType) *Subscriber {
	if bufSize <= 0 {
		bufSize = 64
	}
	s := &Subscriber{
		C:    make(chan Event, bufSize),
		done: make(chan struct{}),
	}
	if len(types) > 0 {
		s.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	b.mu.Lock()
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes s. Calling it twice is harmless.
func (b *Bus) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	_, ok := b.subscribers[s]
	delete(b.subscribers, s)
	b.mu.Unlock()
	if ok {
		close(s.done)
	}
}

// Publish stamps e and delivers it. A nil bus drops the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	e.Seq = b.seq.Add(1)
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subscribers {
		if !s.wants(e.Type) {
			continue
		}
		select {
		case s.C <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
