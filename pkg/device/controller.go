package device

import (
	"context"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/request"
)

// Controller is the drive unit of a CAN system
type Controller struct {
	*base

	hardwareVersion string
	softwareVersion string
	modelNumber     string
	serialNumber    string
	manufacturer    *string
	realtime0       *codec.ControllerRealtime0
	realtime1       *codec.ControllerRealtime1
	parameter1      *codec.ControllerParameter1
	parameter1Raw   []byte
	parameter2      *codec.ControllerParameter2
	parameter2Raw   []byte
	speed           *codec.SpeedParameters
}

// NewController starts a controller orchestrator. frames should carry every
// frame received from the drive unit, it is used for live telemetry.
func NewController(ctx context.Context, mgr *request.Manager, frames <-chan *gobafang.Frame, opts ...Opt) *Controller {
	c := &Controller{}
	c.base = newBase(ctx, c, mgr, frames, opts)
	return c
}

func (c *Controller) role() gobafang.DeviceID {
	return gobafang.DriveUnit
}

func (c *Controller) reads() []request.Request {
	return canRead(gobafang.DriveUnit)
}

func (c *Controller) writes() ([]request.Request, []error) {
	return canWrites(codec.ControllerWrites(codec.ControllerSettings{
		Manufacturer:    c.manufacturer,
		Parameter1:      c.parameter1,
		Parameter1Raw:   c.parameter1Raw,
		Parameter2:      c.parameter2,
		Parameter2Raw:   c.parameter2Raw,
		SpeedParameters: c.speed,
	}))
}

func (c *Controller) decode(f *gobafang.Frame) (codec.Fragment, bool, error) {
	return codec.DecodeFrame(f)
}

func (c *Controller) telemetry(f *gobafang.Frame) bool {
	return canTelemetry(gobafang.DriveUnit, f)
}

func (c *Controller) apply(frag codec.Fragment) {
	switch v := frag.Value.(type) {
	case string:
		switch frag.Field {
		case codec.FieldHardwareVersion:
			c.hardwareVersion = v
		case codec.FieldSoftwareVersion:
			c.softwareVersion = v
		case codec.FieldModelNumber:
			c.modelNumber = v
		case codec.FieldSerialNumber:
			c.serialNumber = v
		case codec.FieldManufacturer:
			c.manufacturer = &v
		}
	case *codec.ControllerRealtime0:
		c.realtime0 = clone(v)
	case *codec.ControllerRealtime1:
		c.realtime1 = clone(v)
	case *codec.ControllerParameter1:
		c.parameter1 = clone(v)
		c.parameter1Raw = cloneBytes(frag.Raw)
	case *codec.ControllerParameter2:
		c.parameter2 = clone(v)
		c.parameter2Raw = cloneBytes(frag.Raw)
	case *codec.SpeedParameters:
		c.speed = clone(v)
	}
}

func (c *Controller) demoData() []codec.Fragment {
	return controllerDemo()
}

// CalibratePositionSensor asks the drive unit to calibrate its rotor
// position sensor
func (c *Controller) CalibratePositionSensor(ctx context.Context) error {
	return c.exec(ctx, codec.CalibratePositionSensorWrite())
}

func (c *Controller) HardwareVersion() (s string) {
	c.call(func() { s = c.hardwareVersion })
	return
}

func (c *Controller) SoftwareVersion() (s string) {
	c.call(func() { s = c.softwareVersion })
	return
}

func (c *Controller) ModelNumber() (s string) {
	c.call(func() { s = c.modelNumber })
	return
}

func (c *Controller) SerialNumber() (s string) {
	c.call(func() { s = c.serialNumber })
	return
}

// Manufacturer returns the manufacturer string, empty until read or set
func (c *Controller) Manufacturer() (s string) {
	c.call(func() {
		if c.manufacturer != nil {
			s = *c.manufacturer
		}
	})
	return
}

func (c *Controller) SetManufacturer(s string) {
	c.call(func() { c.manufacturer = &s })
}

func (c *Controller) Realtime0() (r *codec.ControllerRealtime0) {
	c.call(func() { r = clone(c.realtime0) })
	return
}

func (c *Controller) Realtime1() (r *codec.ControllerRealtime1) {
	c.call(func() { r = clone(c.realtime1) })
	return
}

func (c *Controller) Parameter1() (p *codec.ControllerParameter1) {
	c.call(func() { p = clone(c.parameter1) })
	return
}

// SetParameter1 stores a copy of p, it is written on the next save if the
// block has been read before
func (c *Controller) SetParameter1(p *codec.ControllerParameter1) {
	p = clone(p)
	c.call(func() { c.parameter1 = p })
}

// Parameter1Raw returns the block as last read from the unit
func (c *Controller) Parameter1Raw() (b []byte) {
	c.call(func() { b = cloneBytes(c.parameter1Raw) })
	return
}

func (c *Controller) Parameter2() (p *codec.ControllerParameter2) {
	c.call(func() { p = clone(c.parameter2) })
	return
}

func (c *Controller) SetParameter2(p *codec.ControllerParameter2) {
	p = clone(p)
	c.call(func() { c.parameter2 = p })
}

func (c *Controller) Parameter2Raw() (b []byte) {
	c.call(func() { b = cloneBytes(c.parameter2Raw) })
	return
}

func (c *Controller) SpeedParameters() (p *codec.SpeedParameters) {
	c.call(func() { p = clone(c.speed) })
	return
}

func (c *Controller) SetSpeedParameters(p *codec.SpeedParameters) {
	p = clone(p)
	c.call(func() { c.speed = p })
}
