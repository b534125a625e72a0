package codec

import (
	"fmt"

	"github.com/roffe/gobafang"
)

// Write is one parameter write to a unit
type Write struct {
	Target  gobafang.DeviceID
	Key     Key
	Payload []byte
}

// Frames splits the write into the frames sent on the bus
func (w Write) Frames() ([]*gobafang.Frame, error) {
	return gobafang.WriteFrames(w.Target, w.Key.Command, w.Key.SubCommand, w.Payload)
}

func (w Write) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", w.Target, w.Key, len(w.Payload))
}

// ControllerSettings are the writable groups of a drive unit. Nil groups are
// left untouched on the unit. The parameter blocks are only written together
// with the raw block they were read as.
type ControllerSettings struct {
	Manufacturer    *string
	Parameter1      *ControllerParameter1
	Parameter1Raw   []byte
	Parameter2      *ControllerParameter2
	Parameter2Raw   []byte
	SpeedParameters *SpeedParameters
}

// ControllerWrites encodes every set group. A group that fails to encode is
// reported in errs and left out, the other groups are still returned.
func ControllerWrites(s ControllerSettings) (out []Write, errs []error) {
	add := func(name string, k Key, payload []byte, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		out = append(out, Write{gobafang.DriveUnit, k, payload})
	}
	if s.Manufacturer != nil {
		payload, err := EncodeString(*s.Manufacturer)
		add("manufacturer", KeyManufacturer, payload, err)
	}
	if s.Parameter1 != nil && s.Parameter1Raw != nil {
		payload, err := EncodeParameter1(s.Parameter1, s.Parameter1Raw)
		add("parameter 1", KeyParameter1, payload, err)
	}
	if s.Parameter2 != nil && s.Parameter2Raw != nil {
		payload, err := EncodeParameter2(s.Parameter2, s.Parameter2Raw)
		add("parameter 2", KeyParameter2, payload, err)
	}
	if s.SpeedParameters != nil {
		payload, err := EncodeSpeedParameters(s.SpeedParameters)
		add("speed parameters", KeySpeedParameters, payload, err)
	}
	return out, errs
}

// DisplaySettings are the writable groups of a display
type DisplaySettings struct {
	TotalMileage  *uint32  // km
	SingleMileage *float64 // km
}

// DisplayWrites encodes every set group, see ControllerWrites
func DisplayWrites(s DisplaySettings) (out []Write, errs []error) {
	if s.TotalMileage != nil {
		payload, err := EncodeTotalMileage(*s.TotalMileage)
		if err != nil {
			errs = append(errs, fmt.Errorf("total mileage: %w", err))
		} else {
			out = append(out, Write{gobafang.Display, KeyDisplayTotalMileage, payload})
		}
	}
	if s.SingleMileage != nil {
		payload, err := EncodeSingleMileage(*s.SingleMileage)
		if err != nil {
			errs = append(errs, fmt.Errorf("single mileage: %w", err))
		} else {
			out = append(out, Write{gobafang.Display, KeyDisplaySingleMileage, payload})
		}
	}
	return out, errs
}

func CalibratePositionSensorWrite() Write {
	return Write{gobafang.DriveUnit, KeyCalibratePositionSensor, []byte{0x00, 0x00, 0x00, 0x00, 0x00}}
}

func TimeWrite(hours, minutes, seconds int) (Write, error) {
	payload, err := EncodeTime(hours, minutes, seconds)
	if err != nil {
		return Write{}, err
	}
	return Write{gobafang.Display, KeyDisplayTime, payload}, nil
}

// CleanServiceMileageWrite resets the service counter of the display
func CleanServiceMileageWrite() Write {
	return Write{gobafang.Display, KeyDisplayCleanService, []byte{0x00, 0x00, 0x00}}
}
