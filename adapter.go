package gobafang

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Adapter is the transport to the bus. Frames handed to Send are transmitted
// best effort, a disconnected adapter drops them silently and reports the
// fatal condition on Err.
type Adapter interface {
	Name() string
	Open(context.Context) error
	Close() error
	Send() chan<- *Frame
	Recv() <-chan *Frame
	Err() <-chan error
	Event() <-chan Event
}

type AdapterInfo struct {
	Name               string
	Description        string
	RequiresSerialPort bool
	Family             Family
	New                func(*AdapterConfig) (Adapter, error)
}

func (a *AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s, family: %s, requires serial port: %v", a.Name, a.Description, a.Family, a.RequiresSerialPort)
}

// Family tells which controller generation an adapter talks to
type Family int

const (
	FamilyCAN Family = iota
	FamilyUART
)

func (f Family) String() string {
	if f == FamilyUART {
		return "UART"
	}
	return "CAN"
}

type AdapterConfig struct {
	Debug        bool
	Port         string
	PortBaudrate int
	CANRate      float64
	// Gap released the UART half-duplex token when the motor never answers
	Gap    time.Duration
	Logger Logger
}

var adapterMap = make(map[string]*AdapterInfo)

func NewAdapter(adapterName string, cfg *AdapterConfig) (Adapter, error) {
	if cfg.Logger == nil {
		cfg.Logger = NopLogger{}
	}
	if adapter, found := adapterMap[adapterName]; found {
		return adapter.New(cfg)
	}
	return nil, fmt.Errorf("unknown adapter %q", adapterName)
}

func RegisterAdapter(adapter *AdapterInfo) error {
	if _, found := adapterMap[adapter.Name]; !found {
		adapterMap[adapter.Name] = adapter
		return nil
	}
	return fmt.Errorf("adapter %s already registered", adapter.Name)
}

func ListAdapterNames() []string {
	var out []string
	for name := range adapterMap {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func ListAdapters() []AdapterInfo {
	var out []AdapterInfo
	for _, adapter := range adapterMap {
		out = append(out, *adapter)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

// AdapterFamily returns the family of a registered adapter
func AdapterFamily(adapterName string) (Family, bool) {
	if a, found := adapterMap[adapterName]; found {
		return a.Family, true
	}
	return FamilyCAN, false
}
