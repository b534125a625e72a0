package gobafang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// DeviceID is the 5-bit network address of a unit on the Bafang CAN bus
type DeviceID uint8

const (
	TorqueSensor DeviceID = 0x01
	DriveUnit    DeviceID = 0x02
	Display      DeviceID = 0x03
	Battery      DeviceID = 0x04
	Besst        DeviceID = 0x05
	Broadcast    DeviceID = 0x1F
)

func (d DeviceID) String() string {
	switch d {
	case TorqueSensor:
		return "sensor"
	case DriveUnit:
		return "controller"
	case Display:
		return "display"
	case Battery:
		return "battery"
	case Besst:
		return "besst"
	case Broadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("device(0x%02X)", uint8(d))
	}
}

// Operation is the 3-bit operation field of the identifier
type Operation uint8

const (
	OpWrite Operation = iota
	OpRead
	OpNormalAck
	OpErrorAck
	OpLongStart
	OpLongData
	OpLongEnd
	OpLongError
)

func (o Operation) String() string {
	switch o {
	case OpWrite:
		return "W"
	case OpRead:
		return "R"
	case OpNormalAck:
		return "A"
	case OpErrorAck:
		return "E"
	case OpLongStart:
		return "LS"
	case OpLongData:
		return "LD"
	case OpLongEnd:
		return "LE"
	case OpLongError:
		return "LX"
	default:
		return "?"
	}
}

// MaxPayload is the classical CAN data length
const MaxPayload = 8

// Frame is one message exchanged with a unit. Frames are never mutated after
// creation, the payload is copied in NewFrame.
type Frame struct {
	Source     DeviceID
	Target     DeviceID
	Op         Operation
	Command    uint8
	SubCommand uint8
	Payload    []byte
}

// NewFrame creates a new Frame and copies the payload slice
func NewFrame(source, target DeviceID, op Operation, command, sub uint8, payload []byte) *Frame {
	p := make([]byte, len(payload))
	copy(p, payload)
	return &Frame{
		Source:     source,
		Target:     target,
		Op:         op,
		Command:    command,
		SubCommand: sub,
		Payload:    p,
	}
}

// IsError reports whether the unit answered with an error acknowledge
func (f *Frame) IsError() bool {
	return f.Op == OpErrorAck || f.Op == OpLongError
}

// IsResponse reports whether the frame answers a request
func (f *Frame) IsResponse() bool {
	switch f.Op {
	case OpNormalAck, OpErrorAck, OpLongError:
		return true
	}
	return false
}

// Identifier packs the frame header into a 29-bit extended CAN identifier
//
//	source<<24 | target<<19 | op<<16 | command<<8 | sub
func (f *Frame) Identifier() uint32 {
	return uint32(f.Source&0x1F)<<24 |
		uint32(f.Target&0x1F)<<19 |
		uint32(f.Op&0x07)<<16 |
		uint32(f.Command)<<8 |
		uint32(f.SubCommand)
}

// FrameFromCAN unpacks a 29-bit identifier and data into a Frame
func FrameFromCAN(identifier uint32, data []byte) (*Frame, error) {
	if identifier > 0x1FFFFFFF {
		return nil, fmt.Errorf("identifier 0x%X exceeds 29 bits", identifier)
	}
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("invalid data length: %d", len(data))
	}
	return NewFrame(
		DeviceID(identifier>>24&0x1F),
		DeviceID(identifier>>19&0x1F),
		Operation(identifier>>16&0x07),
		uint8(identifier>>8),
		uint8(identifier),
		data,
	), nil
}

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

func (f *Frame) header() string {
	return fmt.Sprintf("%-10s > %-10s %-2s %02X:%02X", f.Source, f.Target, f.Op, f.Command, f.SubCommand)
}

func (f *Frame) hexView() string {
	var hexView strings.Builder
	for i, b := range f.Payload {
		hexView.WriteString(fmt.Sprintf("%02X", b))
		if i != len(f.Payload)-1 {
			hexView.WriteString(" ")
		}
	}
	return hexView.String()
}

func (f *Frame) String() string {
	var out strings.Builder
	out.WriteString(f.header() + " || ")
	out.WriteString(strconv.Itoa(len(f.Payload)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", f.hexView()))
	out.WriteString(" || ")
	out.WriteString(onlyPrintable(f.Payload))
	return out.String()
}

func (f *Frame) ColorString() string {
	var out strings.Builder
	out.WriteString(green("%s", f.header()) + " || ")
	out.WriteString(strconv.Itoa(len(f.Payload)) + " || ")
	if f.IsError() {
		out.WriteString(red("%-23s", f.hexView()))
	} else {
		out.WriteString(fmt.Sprintf("%-23s", f.hexView()))
	}
	out.WriteString(" || ")
	out.WriteString(yellow("%s", onlyPrintable(f.Payload)))
	return out.String()
}

func onlyPrintable(data []byte) string {
	var out strings.Builder
	for _, b := range data {
		if b < 32 || b > 126 {
			out.WriteString("·")
		} else {
			out.WriteByte(b)
		}
	}
	return out.String()
}
