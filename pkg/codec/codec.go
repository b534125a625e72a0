// Package codec converts Bafang CAN payloads into typed records and back.
//
// Decoding is driven by one table per device role keyed by command and sub
// command. Keys missing from a table are ignored so unknown firmware frames
// pass through harmlessly.
package codec

import (
	"errors"
	"fmt"

	"github.com/roffe/gobafang"
)

var (
	ErrShortPayload = errors.New("short payload")
	ErrOutOfRange   = errors.New("value out of range")
)

// Key addresses one parameter on a unit
type Key struct {
	Command    uint8
	SubCommand uint8
}

func (k Key) String() string {
	return fmt.Sprintf("0x%02X:0x%02X", k.Command, k.SubCommand)
}

// Field names the piece of state a fragment updates
type Field string

const (
	FieldHardwareVersion   Field = "hv"
	FieldSoftwareVersion   Field = "sv"
	FieldModelNumber       Field = "mn"
	FieldSerialNumber      Field = "sn"
	FieldCustomerNumber    Field = "cn"
	FieldManufacturer      Field = "m"
	FieldBootloaderVersion Field = "bv"
	FieldParameter1        Field = "p1"
	FieldParameter2        Field = "p2"
	FieldSpeedParameters   Field = "p3"
	FieldRealtime0         Field = "r0"
	FieldRealtime1         Field = "r1"
	FieldDisplayState      Field = "state"
	FieldDisplayData1      Field = "data1"
	FieldDisplayData2      Field = "data2"
	FieldDisplayErrors     Field = "errors"
	FieldSensorRealtime    Field = "realtime"
)

// Fragment is one decoded parameter. Raw holds a copy of the payload for the
// long parameter blocks, nil otherwise.
type Fragment struct {
	Field Field
	Value interface{}
	Raw   []byte
}

type decoder struct {
	field  Field
	decode func([]byte) (interface{}, error)
	raw    bool
}

var tables = map[gobafang.DeviceID]map[Key]decoder{
	gobafang.DriveUnit: {
		KeyHardwareVersion:   {FieldHardwareVersion, decodeString, false},
		KeySoftwareVersion:   {FieldSoftwareVersion, decodeString, false},
		KeyModelNumber:       {FieldModelNumber, decodeString, false},
		KeySerialNumber:      {FieldSerialNumber, decodeString, false},
		KeyCustomerNumber:    {FieldCustomerNumber, decodeString, false},
		KeyManufacturer:      {FieldManufacturer, decodeString, false},
		KeyBootloaderVersion: {FieldBootloaderVersion, decodeString, false},
		KeyParameter1:        {FieldParameter1, decodeParameter1, true},
		KeyParameter2:        {FieldParameter2, decodeParameter2, true},
		KeySpeedParameters:   {FieldSpeedParameters, decodeSpeedParameters, false},
		KeyRealtime0:         {FieldRealtime0, decodeRealtime0, false},
		KeyRealtime1:         {FieldRealtime1, decodeRealtime1, false},
	},
	gobafang.Display: {
		KeyHardwareVersion:   {FieldHardwareVersion, decodeString, false},
		KeySoftwareVersion:   {FieldSoftwareVersion, decodeString, false},
		KeyModelNumber:       {FieldModelNumber, decodeString, false},
		KeySerialNumber:      {FieldSerialNumber, decodeString, false},
		KeyCustomerNumber:    {FieldCustomerNumber, decodeString, false},
		KeyManufacturer:      {FieldManufacturer, decodeString, false},
		KeyBootloaderVersion: {FieldBootloaderVersion, decodeString, false},
		KeyDisplayErrors:     {FieldDisplayErrors, decodeDisplayErrors, false},
		KeyDisplayState:      {FieldDisplayState, decodeDisplayState, false},
		KeyDisplayData1:      {FieldDisplayData1, decodeDisplayData1, false},
		KeyDisplayData2:      {FieldDisplayData2, decodeDisplayData2, false},
	},
	gobafang.TorqueSensor: {
		KeyHardwareVersion: {FieldHardwareVersion, decodeString, false},
		KeySoftwareVersion: {FieldSoftwareVersion, decodeString, false},
		KeyModelNumber:     {FieldModelNumber, decodeString, false},
		KeySerialNumber:    {FieldSerialNumber, decodeString, false},
		KeySensorRealtime:  {FieldSensorRealtime, decodeSensorRealtime, false},
	},
}

// Decode turns a payload received from role into a Fragment. ok is false for
// keys the role does not define.
func Decode(role gobafang.DeviceID, command, sub uint8, payload []byte) (frag Fragment, ok bool, err error) {
	table, found := tables[role]
	if !found {
		return Fragment{}, false, nil
	}
	key := Key{command, sub}
	d, found := table[key]
	if !found {
		return Fragment{}, false, nil
	}
	v, err := d.decode(payload)
	if err != nil {
		return Fragment{}, true, fmt.Errorf("%s %s: %w", role, key, err)
	}
	frag = Fragment{Field: d.field, Value: v}
	if d.raw {
		frag.Raw = make([]byte, len(payload))
		copy(frag.Raw, payload)
	}
	return frag, true, nil
}

// DecodeFrame decodes a frame by its source
func DecodeFrame(f *gobafang.Frame) (Fragment, bool, error) {
	return Decode(f.Source, f.Command, f.SubCommand, f.Payload)
}

// Keys lists every key known for role
func Keys(role gobafang.DeviceID) []Key {
	out := make([]Key, 0, len(tables[role]))
	for k := range tables[role] {
		out = append(out, k)
	}
	return out
}

func need(payload []byte, n int) error {
	if len(payload) < n {
		return fmt.Errorf("%w: want %d bytes got %d", ErrShortPayload, n, len(payload))
	}
	return nil
}
