package device

import (
	"context"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/request"
)

// Sensor is the torque sensor of a CAN system, it has nothing to write
type Sensor struct {
	*base

	hardwareVersion string
	softwareVersion string
	modelNumber     string
	serialNumber    string
	realtime        *codec.SensorRealtime
}

func NewSensor(ctx context.Context, mgr *request.Manager, frames <-chan *gobafang.Frame, opts ...Opt) *Sensor {
	s := &Sensor{}
	s.base = newBase(ctx, s, mgr, frames, opts)
	return s
}

func (s *Sensor) role() gobafang.DeviceID {
	return gobafang.TorqueSensor
}

func (s *Sensor) reads() []request.Request {
	return canRead(gobafang.TorqueSensor)
}

func (s *Sensor) writes() ([]request.Request, []error) {
	return nil, nil
}

func (s *Sensor) decode(f *gobafang.Frame) (codec.Fragment, bool, error) {
	return codec.DecodeFrame(f)
}

func (s *Sensor) telemetry(f *gobafang.Frame) bool {
	return canTelemetry(gobafang.TorqueSensor, f)
}

func (s *Sensor) apply(frag codec.Fragment) {
	switch v := frag.Value.(type) {
	case string:
		switch frag.Field {
		case codec.FieldHardwareVersion:
			s.hardwareVersion = v
		case codec.FieldSoftwareVersion:
			s.softwareVersion = v
		case codec.FieldModelNumber:
			s.modelNumber = v
		case codec.FieldSerialNumber:
			s.serialNumber = v
		}
	case *codec.SensorRealtime:
		s.realtime = clone(v)
	}
}

func (s *Sensor) demoData() []codec.Fragment {
	return sensorDemo()
}

func (s *Sensor) HardwareVersion() (v string) {
	s.call(func() { v = s.hardwareVersion })
	return
}

func (s *Sensor) SoftwareVersion() (v string) {
	s.call(func() { v = s.softwareVersion })
	return
}

func (s *Sensor) ModelNumber() (v string) {
	s.call(func() { v = s.modelNumber })
	return
}

func (s *Sensor) SerialNumber() (v string) {
	s.call(func() { v = s.serialNumber })
	return
}

func (s *Sensor) Realtime() (r *codec.SensorRealtime) {
	s.call(func() { r = clone(s.realtime) })
	return
}
