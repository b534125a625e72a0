package codec

import "github.com/roffe/gobafang"

// Read keys
var (
	KeyHardwareVersion   = Key{0x60, 0x00}
	KeySoftwareVersion   = Key{0x60, 0x01}
	KeyModelNumber       = Key{0x60, 0x02}
	KeySerialNumber      = Key{0x60, 0x03}
	KeyCustomerNumber    = Key{0x60, 0x04}
	KeyManufacturer      = Key{0x60, 0x05}
	KeyDisplayErrors     = Key{0x60, 0x07}
	KeyBootloaderVersion = Key{0x60, 0x08}
	KeyParameter1        = Key{0x60, 0x11}
	KeyParameter2        = Key{0x60, 0x12}

	KeySensorRealtime = Key{0x31, 0x00}

	KeyRealtime0       = Key{0x32, 0x00}
	KeyRealtime1       = Key{0x32, 0x01}
	KeySpeedParameters = Key{0x32, 0x03}

	KeyDisplayState = Key{0x63, 0x00}
	KeyDisplayData1 = Key{0x63, 0x01}
	KeyDisplayData2 = Key{0x63, 0x02}
)

// Write keys
var (
	KeyCalibratePositionSensor = Key{0x62, 0x00} // drive unit
	KeyDisplayTime             = Key{0x62, 0x00} // display
	KeyDisplayTotalMileage     = Key{0x62, 0x01}
	KeyDisplaySingleMileage    = Key{0x62, 0x02}
	KeyDisplayCleanService     = Key{0x62, 0x03}
)

var readCommands = map[gobafang.DeviceID][]Key{
	gobafang.DriveUnit: {
		KeyHardwareVersion,
		KeySoftwareVersion,
		KeyModelNumber,
		KeySerialNumber,
		KeyManufacturer,
		KeySpeedParameters,
		KeyParameter1,
		KeyParameter2,
	},
	gobafang.Display: {
		KeyHardwareVersion,
		KeySoftwareVersion,
		KeyModelNumber,
		KeySerialNumber,
		KeyCustomerNumber,
		KeyBootloaderVersion,
		KeyDisplayErrors,
		KeyDisplayData1,
		KeyDisplayData2,
	},
	gobafang.TorqueSensor: {
		KeyHardwareVersion,
		KeySoftwareVersion,
		KeyModelNumber,
		KeySerialNumber,
	},
}

var telemetry = map[gobafang.DeviceID][]Key{
	gobafang.DriveUnit:    {KeyRealtime0, KeyRealtime1},
	gobafang.Display:      {KeyDisplayState},
	gobafang.TorqueSensor: {KeySensorRealtime},
}

// ReadCommands returns the keys read by a full load of role
func ReadCommands(role gobafang.DeviceID) []Key {
	out := make([]Key, len(readCommands[role]))
	copy(out, readCommands[role])
	return out
}

// IsTelemetry reports whether role broadcasts k on its own
func IsTelemetry(role gobafang.DeviceID, k Key) bool {
	for _, t := range telemetry[role] {
		if t == k {
			return true
		}
	}
	return false
}
