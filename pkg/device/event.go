package device

import (
	"fmt"
	"sync"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
)

type EventType int

const (
	EventData EventType = iota
	EventReadFinish
	EventWriteFinish
)

// Event is emitted by an orchestrator. Data events carry a copy of the new
// value in Value, finish events carry the batch counters.
type Event struct {
	Type    EventType
	Field   codec.Field
	Value   interface{}
	Success int
	Failure int
}

// Name returns the event name, data-<field>, read-finish or write-finish
func (e Event) Name() string {
	switch e.Type {
	case EventReadFinish:
		return "read-finish"
	case EventWriteFinish:
		return "write-finish"
	default:
		return "data-" + string(e.Field)
	}
}

func (e Event) String() string {
	if e.Type == EventData {
		return fmt.Sprintf("%s: %+v", e.Name(), e.Value)
	}
	return fmt.Sprintf("%s(%d, %d)", e.Name(), e.Success, e.Failure)
}

// Subscription receives the events of one orchestrator until Close
type Subscription struct {
	h    *hub
	ch   chan Event
	once sync.Once
}

func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close stops delivery and closes the channel
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.h.unsubscribe(s)
	})
}

type hub struct {
	log    gobafang.Logger
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func newHub(log gobafang.Logger) *hub {
	return &hub{
		log:  log,
		subs: make(map[*Subscription]struct{}),
	}
}

func (h *hub) subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	s := &Subscription{h: h, ch: make(chan Event, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

func (h *hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, found := h.subs[s]; !found {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// emit never blocks. A full subscriber loses data events, a finish event
// takes the place of the oldest buffered event instead.
func (h *hub) emit(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- e:
			continue
		default:
		}
		if e.Type == EventData {
			h.log.Warn("subscriber full, dropped %s", e.Name())
			continue
		}
		// only emit sends on s.ch and it holds h.mu, one receive frees a slot
		select {
		case old := <-s.ch:
			h.log.Warn("subscriber full, dropped %s for %s", old.Name(), e.Name())
		default:
		}
		select {
		case s.ch <- e:
		default:
			h.log.Warn("subscriber full, dropped %s", e.Name())
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		close(s.ch)
	}
	h.subs = make(map[*Subscription]struct{})
}
