package gobafang

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/brutella/can"
)

const (
	canEFFFlag = 0x80000000
	canEFFMask = 0x1FFFFFFF
)

func init() {
	for _, dev := range FindDevices() {
		dev := dev
		if err := RegisterAdapter(&AdapterInfo{
			Name:               "SocketCAN " + dev,
			Description:        "Linux SocketCAN interface",
			RequiresSerialPort: false,
			Family:             FamilyCAN,
			New: func(cfg *AdapterConfig) (Adapter, error) {
				cfg.Port = dev
				return NewSocketCAN(cfg)
			},
		}); err != nil {
			panic(err)
		}
	}
}

// SocketCAN talks to a Linux CAN interface, the bitrate is configured
// outside of the program (ip link set can0 type can bitrate 250000)
type SocketCAN struct {
	*BaseAdapter
	bus *can.Bus
}

func NewSocketCAN(cfg *AdapterConfig) (Adapter, error) {
	return &SocketCAN{
		BaseAdapter: NewBaseAdapter("SocketCAN", cfg),
	}, nil
}

func (a *SocketCAN) Open(ctx context.Context) error {
	bus, err := can.NewBusForInterfaceWithName(a.cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to initialize CAN bus: %w", err)
	}
	a.bus = bus
	bus.SubscribeFunc(a.handle)
	go func() {
		if err := bus.ConnectAndPublish(); err != nil {
			a.Fatal(fmt.Errorf("CAN bus publish error: %w", err))
		}
	}()
	go a.sendManager(ctx)
	return nil
}

func (a *SocketCAN) Close() error {
	a.BaseAdapter.Close()
	if a.bus == nil {
		return nil
	}
	return a.bus.Disconnect()
}

func (a *SocketCAN) handle(frame can.Frame) {
	if frame.ID&canEFFFlag == 0 {
		return
	}
	length := min(int(frame.Length), MaxPayload)
	f, err := FrameFromCAN(frame.ID&canEFFMask, frame.Data[:length])
	if err != nil {
		a.Warn(err.Error())
		return
	}
	a.deliver(f)
}

func (a *SocketCAN) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.closeChan:
			return
		case f := <-a.sendChan:
			if err := a.bus.Publish(packFrame(f)); err != nil {
				a.Error(fmt.Errorf("send error: %w", err))
				continue
			}
			a.sent()
		}
	}
}

// packFrame creates a socketcan frame with the extended flag set
func packFrame(f *Frame) can.Frame {
	var data [8]byte
	n := copy(data[:], f.Payload)
	return can.Frame{
		ID:     f.Identifier() | canEFFFlag,
		Length: uint8(n),
		Data:   data,
	}
}

func FindDevices() (dev []string) {
	iFaces, _ := net.Interfaces()
	for _, i := range iFaces {
		if strings.Contains(i.Name, "can") {
			dev = append(dev, i.Name)
		}
	}
	return
}
