package gobafang

import (
	"context"
)

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "Virtual",
		Description:        "Loopback adapter used for testing",
		RequiresSerialPort: false,
		Family:             FamilyCAN,
		New: func(cfg *AdapterConfig) (Adapter, error) {
			return NewVirtual(cfg, nil), nil
		},
	}); err != nil {
		panic(err)
	}
}

// Responder answers a frame sent to the virtual bus
type Responder func(*Frame) []*Frame

// Virtual hands every sent frame to a Responder and delivers the answers as
// incoming frames. Without a responder sent frames are looped back.
type Virtual struct {
	*BaseAdapter
	responder Responder
}

func NewVirtual(cfg *AdapterConfig, responder Responder) *Virtual {
	return &Virtual{
		BaseAdapter: NewBaseAdapter("Virtual", cfg),
		responder:   responder,
	}
}

func (v *Virtual) Open(ctx context.Context) error {
	go v.sendManager(ctx)
	return nil
}

func (v *Virtual) Close() error {
	v.BaseAdapter.Close()
	return nil
}

// Inject delivers a frame as if it was received from the bus
func (v *Virtual) Inject(frame *Frame) {
	v.deliver(frame)
}

// Disconnect simulates the dongle being unplugged
func (v *Virtual) Disconnect() {
	v.Fatal(ErrDeviceDisconnected)
}

func (v *Virtual) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.closeChan:
			return
		case frame := <-v.sendChan:
			v.sent()
			if v.responder == nil {
				v.deliver(frame)
				continue
			}
			for _, resp := range v.responder(frame) {
				v.deliver(resp)
			}
		}
	}
}
