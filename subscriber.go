package gobafang

import (
	"context"
	"fmt"
	"sync"
)

// Subscriber receives the inbound frames of a set of source devices, or every
// frame when no sources were given. The channel is closed on Close and when
// the transport goes away.
type Subscriber struct {
	h            *handler
	sources      map[DeviceID]struct{}
	responseChan chan *Frame
	unregistered bool // guarded by h.mu
	closeOnce    sync.Once

	mu   sync.Mutex
	stop func() bool
}

func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.stop != nil {
			s.stop()
		}
		s.mu.Unlock()
		s.h.unregisterSubscriber(s)
	})
}

func (s *Subscriber) Chan() <-chan *Frame {
	return s.responseChan
}

// Wait returns the next frame or the context error
func (s *Subscriber) Wait(ctx context.Context) (*Frame, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout: %w", ctx.Err())
	case frame, ok := <-s.responseChan:
		if !ok {
			return nil, ErrResponseChannelClosed
		}
		return frame, nil
	}
}
