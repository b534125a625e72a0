package gobafang

import (
	"sync"
)

type BaseAdapter struct {
	name               string
	cfg                *AdapterConfig
	sendChan, recvChan chan *Frame

	errOnce sync.Once
	errChan chan error

	evtChan chan Event

	closeOnce sync.Once
	closeChan chan struct{}

	counters counters
}

func NewBaseAdapter(name string, cfg *AdapterConfig) *BaseAdapter {
	if cfg.Logger == nil {
		cfg.Logger = NopLogger{}
	}
	return &BaseAdapter{
		name:      name,
		cfg:       cfg,
		sendChan:  make(chan *Frame, 40),
		recvChan:  make(chan *Frame, 1024),
		errChan:   make(chan error, 1),
		evtChan:   make(chan Event, 100),
		closeChan: make(chan struct{}),
	}
}

// Name returns the adapter name.
func (base *BaseAdapter) Name() string {
	return base.name
}

// Return the send channel for the adapter
func (base *BaseAdapter) Send() chan<- *Frame {
	return base.sendChan
}

// Return the receive channel for the adapter
func (base *BaseAdapter) Recv() <-chan *Frame {
	return base.recvChan
}

// Return the error channel for the adapter
func (base *BaseAdapter) Err() <-chan error {
	return base.errChan
}

func (base *BaseAdapter) Event() <-chan Event {
	return base.evtChan
}

func (base *BaseAdapter) Close() {
	base.closeOnce.Do(func() {
		close(base.closeChan)
		select {
		case base.errChan <- nil:
		default:
			base.cfg.Logger.Debug("failed to send <nil> to errchan")
		}
	})
}

// Set a fatal adapter error, meaning communication is broken and cannot continue.
func (base *BaseAdapter) Fatal(err error) {
	base.errOnce.Do(func() {
		select {
		case base.errChan <- err:
		default:
			base.cfg.Logger.Error("error channel full: %v", err)
		}
	})
}

func (base *BaseAdapter) sendEvent(eventType EventType, details string) {
	select {
	case base.evtChan <- Event{Type: eventType, Details: details}:
	default:
		base.cfg.Logger.Warn("event channel full: %s", details)
	}
}

// deliver pushes an inbound frame without blocking the reader
func (base *BaseAdapter) deliver(frame *Frame) {
	if base.cfg.Debug {
		base.cfg.Logger.DebugFrame("<<", frame)
	}
	select {
	case base.recvChan <- frame:
		base.counters.recv.Add(1)
	default:
		base.counters.dropped.Add(1)
		base.Error(ErrDroppedFrame)
	}
}

// Send an error event
func (base *BaseAdapter) Error(err error) {
	base.counters.errors.Add(1)
	base.sendEvent(EventTypeError, err.Error())
}

// Send a warning event
func (base *BaseAdapter) Warn(warn string) {
	base.sendEvent(EventTypeWarning, warn)
}

// Send an info event
func (base *BaseAdapter) Info(info string) {
	base.sendEvent(EventTypeInfo, info)
}

// Send a debug event
func (base *BaseAdapter) Debug(debug string) {
	base.sendEvent(EventTypeDebug, debug)
}
