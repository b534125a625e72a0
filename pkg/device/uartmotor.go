package device

import (
	"context"
	"time"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/request"
	"github.com/roffe/gobafang/pkg/uart"
)

// Fields of a serial motor
const (
	FieldInfo     codec.Field = "info"
	FieldBasic    codec.Field = "basic"
	FieldPedal    codec.Field = "pedal"
	FieldThrottle codec.Field = "throttle"
)

// uartTimeout covers the wait for the half duplex line to become free
const uartTimeout = 3 * time.Second

// UartMotor is a BBS family motor on a serial link. Every block is addressed
// by its UART code carried as sub command.
type UartMotor struct {
	*base

	info     *uart.Info
	basic    *uart.BasicParameters
	pedal    *uart.PedalParameters
	throttle *uart.ThrottleParameters
}

func NewUartMotor(ctx context.Context, mgr *request.Manager, frames <-chan *gobafang.Frame, opts ...Opt) *UartMotor {
	u := &UartMotor{}
	u.base = newBase(ctx, u, mgr, frames, opts)
	return u
}

var uartBlocks = []uint8{uart.CodeInfo, uart.CodeBasic, uart.CodePedal, uart.CodeThrottle}

func (u *UartMotor) role() gobafang.DeviceID {
	return gobafang.DriveUnit
}

func (u *UartMotor) reads() []request.Request {
	out := make([]request.Request, 0, len(uartBlocks))
	for _, code := range uartBlocks {
		out = append(out, request.Request{
			Target:     gobafang.DriveUnit,
			Command:    uart.CmdRead,
			SubCommand: code,
			Frames:     []*gobafang.Frame{gobafang.ReadFrame(gobafang.DriveUnit, uart.CmdRead, code)},
			MaxRetries: request.UseDefaultRetries,
			Timeout:    uartTimeout,
		})
	}
	return out
}

func (u *UartMotor) writes() (out []request.Request, errs []error) {
	add := func(code uint8, data []byte, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		out = append(out, request.Request{
			Target:     gobafang.DriveUnit,
			Command:    uart.CmdWrite,
			SubCommand: code,
			Frames:     []*gobafang.Frame{gobafang.NewFrame(gobafang.Besst, gobafang.DriveUnit, gobafang.OpWrite, uart.CmdWrite, code, data)},
			MaxRetries: request.UseDefaultRetries,
			Timeout:    uartTimeout,
		})
	}
	if u.basic != nil {
		data, err := uart.SerializeBasic(u.basic)
		add(uart.CodeBasic, data, err)
	}
	if u.pedal != nil {
		data, err := uart.SerializePedal(u.pedal)
		add(uart.CodePedal, data, err)
	}
	if u.throttle != nil {
		data, err := uart.SerializeThrottle(u.throttle)
		add(uart.CodeThrottle, data, err)
	}
	return out, errs
}

func (u *UartMotor) decode(f *gobafang.Frame) (codec.Fragment, bool, error) {
	if f.Command != uart.CmdRead {
		return codec.Fragment{}, false, nil
	}
	var (
		field codec.Field
		v     interface{}
		err   error
	)
	switch f.SubCommand {
	case uart.CodeInfo:
		field = FieldInfo
		v, err = uart.ParseInfo(f.Payload)
	case uart.CodeBasic:
		field = FieldBasic
		v, err = uart.ParseBasic(f.Payload)
	case uart.CodePedal:
		field = FieldPedal
		v, err = uart.ParsePedal(f.Payload)
	case uart.CodeThrottle:
		field = FieldThrottle
		v, err = uart.ParseThrottle(f.Payload)
	default:
		return codec.Fragment{}, false, nil
	}
	if err != nil {
		return codec.Fragment{}, true, err
	}
	return codec.Fragment{Field: field, Value: v}, true, nil
}

func (u *UartMotor) telemetry(*gobafang.Frame) bool {
	return false
}

func (u *UartMotor) apply(frag codec.Fragment) {
	switch v := frag.Value.(type) {
	case *uart.Info:
		u.info = clone(v)
	case *uart.BasicParameters:
		u.basic = clone(v)
	case *uart.PedalParameters:
		u.pedal = clone(v)
	case *uart.ThrottleParameters:
		u.throttle = clone(v)
	}
}

func (u *UartMotor) demoData() []codec.Fragment {
	return uartDemo()
}

func (u *UartMotor) Info() (i *uart.Info) {
	u.call(func() { i = clone(u.info) })
	return
}

func (u *UartMotor) BasicParameters() (p *uart.BasicParameters) {
	u.call(func() { p = clone(u.basic) })
	return
}

// SetBasicParameters stores a copy of p for the next save
func (u *UartMotor) SetBasicParameters(p *uart.BasicParameters) {
	p = clone(p)
	u.call(func() { u.basic = p })
}

func (u *UartMotor) PedalParameters() (p *uart.PedalParameters) {
	u.call(func() { p = clone(u.pedal) })
	return
}

func (u *UartMotor) SetPedalParameters(p *uart.PedalParameters) {
	p = clone(p)
	u.call(func() { u.pedal = p })
}

func (u *UartMotor) ThrottleParameters() (p *uart.ThrottleParameters) {
	u.call(func() { p = clone(u.throttle) })
	return
}

func (u *UartMotor) SetThrottleParameters(p *uart.ThrottleParameters) {
	p = clone(p)
	u.call(func() { u.throttle = p })
}
