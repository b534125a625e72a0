package device

import (
	"context"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/request"
)

// Display is the display unit of a CAN system
type Display struct {
	*base

	hardwareVersion   string
	softwareVersion   string
	modelNumber       string
	serialNumber      string
	customerNumber    string
	bootloaderVersion string
	errors            []uint8
	state             *codec.DisplayState
	data1             *codec.DisplayData1
	data2             *codec.DisplayData2
	settings          codec.DisplaySettings
}

func NewDisplay(ctx context.Context, mgr *request.Manager, frames <-chan *gobafang.Frame, opts ...Opt) *Display {
	d := &Display{}
	d.base = newBase(ctx, d, mgr, frames, opts)
	return d
}

func (d *Display) role() gobafang.DeviceID {
	return gobafang.Display
}

func (d *Display) reads() []request.Request {
	return canRead(gobafang.Display)
}

func (d *Display) writes() ([]request.Request, []error) {
	return canWrites(codec.DisplayWrites(d.settings))
}

func (d *Display) decode(f *gobafang.Frame) (codec.Fragment, bool, error) {
	return codec.DecodeFrame(f)
}

func (d *Display) telemetry(f *gobafang.Frame) bool {
	return canTelemetry(gobafang.Display, f)
}

func (d *Display) apply(frag codec.Fragment) {
	switch v := frag.Value.(type) {
	case string:
		switch frag.Field {
		case codec.FieldHardwareVersion:
			d.hardwareVersion = v
		case codec.FieldSoftwareVersion:
			d.softwareVersion = v
		case codec.FieldModelNumber:
			d.modelNumber = v
		case codec.FieldSerialNumber:
			d.serialNumber = v
		case codec.FieldCustomerNumber:
			d.customerNumber = v
		case codec.FieldBootloaderVersion:
			d.bootloaderVersion = v
		}
	case []uint8:
		d.errors = cloneBytes(v)
	case *codec.DisplayState:
		d.state = clone(v)
	case *codec.DisplayData1:
		d.data1 = clone(v)
	case *codec.DisplayData2:
		d.data2 = clone(v)
	}
}

func (d *Display) demoData() []codec.Fragment {
	return displayDemo()
}

// SetTime sets the display clock
func (d *Display) SetTime(ctx context.Context, hours, minutes, seconds int) error {
	w, err := codec.TimeWrite(hours, minutes, seconds)
	if err != nil {
		return err
	}
	return d.exec(ctx, w)
}

// CleanServiceMileage resets the service interval counter
func (d *Display) CleanServiceMileage(ctx context.Context) error {
	return d.exec(ctx, codec.CleanServiceMileageWrite())
}

func (d *Display) HardwareVersion() (s string) {
	d.call(func() { s = d.hardwareVersion })
	return
}

func (d *Display) SoftwareVersion() (s string) {
	d.call(func() { s = d.softwareVersion })
	return
}

func (d *Display) ModelNumber() (s string) {
	d.call(func() { s = d.modelNumber })
	return
}

func (d *Display) SerialNumber() (s string) {
	d.call(func() { s = d.serialNumber })
	return
}

func (d *Display) CustomerNumber() (s string) {
	d.call(func() { s = d.customerNumber })
	return
}

func (d *Display) BootloaderVersion() (s string) {
	d.call(func() { s = d.bootloaderVersion })
	return
}

// Errors returns the active error codes
func (d *Display) Errors() (e []uint8) {
	d.call(func() { e = cloneBytes(d.errors) })
	return
}

func (d *Display) State() (s *codec.DisplayState) {
	d.call(func() { s = clone(d.state) })
	return
}

func (d *Display) Data1() (r *codec.DisplayData1) {
	d.call(func() { r = clone(d.data1) })
	return
}

func (d *Display) Data2() (r *codec.DisplayData2) {
	d.call(func() { r = clone(d.data2) })
	return
}

// SetTotalMileage queues a total mileage write for the next save
func (d *Display) SetTotalMileage(km uint32) {
	d.call(func() { d.settings.TotalMileage = &km })
}

// SetSingleMileage queues a trip mileage write for the next save
func (d *Display) SetSingleMileage(km float64) {
	d.call(func() { d.settings.SingleMileage = &km })
}

// Settings returns the pending mileage writes
func (d *Display) Settings() (s codec.DisplaySettings) {
	d.call(func() {
		s.TotalMileage = clone(d.settings.TotalMileage)
		s.SingleMileage = clone(d.settings.SingleMileage)
	})
	return
}
