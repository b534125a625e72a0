package gobafang

import (
	"context"
	"sync"
)

// handler takes care of faning out incoming frames to any subs
type handler struct {
	adapter   Adapter
	log       Logger
	reasm     *Reassembler
	close     chan struct{}
	closeOnce sync.Once

	submap     map[DeviceID]map[*Subscriber]struct{}
	globalSubs []*Subscriber
	closed     bool
	err        error

	mu sync.RWMutex
}

func newHandler(adapter Adapter, log Logger) *handler {
	return &handler{
		adapter:    adapter,
		log:        log,
		reasm:      NewReassembler(),
		close:      make(chan struct{}),
		submap:     make(map[DeviceID]map[*Subscriber]struct{}),
		globalSubs: make([]*Subscriber, 0, 10),
	}
}

func (h *handler) registerSubscriber(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.responseChan)
		sub.unregistered = true
		return
	}
	if len(sub.sources) == 0 {
		h.globalSubs = append(h.globalSubs, sub)
		return
	}
	for id := range sub.sources {
		if _, ok := h.submap[id]; !ok {
			h.submap[id] = make(map[*Subscriber]struct{})
		}
		h.submap[id][sub] = struct{}{}
	}
}

func (h *handler) unregisterSubscriber(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.unregistered {
		return
	}
	sub.unregistered = true
	if len(sub.sources) == 0 {
		for i, s := range h.globalSubs {
			if s == sub {
				h.globalSubs = append(h.globalSubs[:i], h.globalSubs[i+1:]...)
				break
			}
		}
		close(sub.responseChan)
		return
	}
	for id := range sub.sources {
		if subs, ok := h.submap[id]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.submap, id)
			}
		}
	}
	close(sub.responseChan)
}

// closeAll closes every subscriber channel, which is how subscribers learn
// the transport went away
func (h *handler) closeAll(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.err = err
	for _, sub := range h.globalSubs {
		sub.unregistered = true
		close(sub.responseChan)
	}
	h.globalSubs = nil
	for _, subs := range h.submap {
		for sub := range subs {
			if !sub.unregistered {
				sub.unregistered = true
				close(sub.responseChan)
			}
		}
	}
	h.submap = make(map[DeviceID]map[*Subscriber]struct{})
}

func (h *handler) run(ctx context.Context) {
	recvChan := h.adapter.Recv()
	errChan := h.adapter.Err()
	for {
		select {
		case <-h.close:
			h.closeAll(ErrClientClosed)
			return
		case <-ctx.Done():
			h.closeAll(ctx.Err())
			return
		case err := <-errChan:
			if err != nil {
				h.log.Error("adapter error: %v", err)
			}
			h.closeAll(ErrDeviceDisconnected)
			return
		case frame, ok := <-recvChan:
			if !ok {
				h.log.Warn("incoming channel closed")
				h.closeAll(ErrDeviceDisconnected)
				return
			}
			if f := h.reasm.Feed(frame); f != nil {
				h.deliver(f)
			}
		}
	}
}

// NOTE: We send while holding RLock on h.mu. unregisterSubscriber acquires the write lock
// and closes sub.responseChan. Holding RLock guarantees the channel won't be closed
// mid-send, avoiding send-on-closed-channel panics.
func (h *handler) deliver(frame *Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.globalSubs {
		select {
		case sub.responseChan <- frame:
		default:
			h.log.Warn("failed to deliver %s 0x%02X:0x%02X", frame.Source, frame.Command, frame.SubCommand)
		}
	}
	if subs, ok := h.submap[frame.Source]; ok {
		for sub := range subs {
			select {
			case sub.responseChan <- frame:
			default:
				h.log.Warn("failed to deliver %s 0x%02X:0x%02X", frame.Source, frame.Command, frame.SubCommand)
			}
		}
	}
}

func (h *handler) Close() {
	h.closeOnce.Do(func() {
		close(h.close)
	})
}
