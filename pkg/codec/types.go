package codec

// ControllerRealtime0 is broadcast by the drive unit on 0x32:0x00
type ControllerRealtime0 struct {
	RemainingCapacity uint8   // %
	SingleTrip        float64 // km, 0.01 steps
	Cadence           uint8   // rpm
	Torque            uint16  // mV
	RemainingDistance float64 // km, 0.01 steps
}

// ControllerRealtime1 is broadcast by the drive unit on 0x32:0x01
type ControllerRealtime1 struct {
	Speed       float64 // km/h, 0.01 steps
	Current     float64 // A, 0.01 steps
	Voltage     float64 // V, 0.01 steps
	Temperature int16   // °C
	// MotorTemperature is only valid with HasMotorTemperature
	MotorTemperature    int16
	HasMotorTemperature bool
}

type SpeedParameters struct {
	SpeedLimit    float64 // km/h, 0.01 steps
	WheelDiameter uint16  // wheel code
	Circumference uint16  // mm
}

type AssistLevel struct {
	CurrentLimit uint8 // %
	SpeedLimit   uint8 // %
}

// ControllerParameter1 is the 64 byte block on 0x60:0x11.
//
//	0      system voltage V
//	1      current limit A
//	2      overvoltage V
//	3      undervoltage under load V
//	4      undervoltage V
//	5-6    battery capacity mAh
//	7      max current on low charge A
//	8      full capacity range km
//	9      pedal sensor type
//	10     coaster brake
//	11     pedal sensor signals per rotation
//	12     speed sensor channels
//	13     motor type
//	14     motor pole pairs
//	15     speedmeter magnets
//	16     temperature sensor type
//	17-18  deceleration ratio /100
//	19-20  motor max rotor rpm
//	21-22  d axis inductance
//	23-24  q axis inductance
//	25-26  phase resistance
//	27-28  reverse potential
//	29     throttle start voltage /10 V
//	30     throttle max voltage /10 V
//	31     start current %
//	32     current loading time /10 s
//	33     current shedding time /10 s
//	34-51  assist levels 1-9, current % then speed %
//	52     displayless mode
//	53     lamps always on
//
// Bytes 54-63 are not decoded and written back as read.
type ControllerParameter1 struct {
	SystemVoltage         uint8
	CurrentLimit          uint8
	OverVoltage           uint8
	UnderVoltageUnderLoad uint8
	UnderVoltage          uint8
	BatteryCapacity       uint16
	MaxCurrentOnLowCharge uint8
	FullCapacityRange     uint8
	PedalSensorType       uint8
	CoasterBrake          bool
	PedalSensorSignals    uint8
	SpeedSensorChannels   uint8
	MotorType             uint8
	MotorPolePairs        uint8
	SpeedmeterMagnets     uint8
	TemperatureSensorType uint8
	DecelerationRatio     float64
	MotorMaxRotorRPM      uint16
	MotorDAxisInductance  uint16
	MotorQAxisInductance  uint16
	MotorPhaseResistance  uint16
	MotorReversePotential uint16
	ThrottleStartVoltage  float64
	ThrottleMaxVoltage    float64
	StartCurrent          uint8
	CurrentLoadingTime    float64
	CurrentSheddingTime   float64
	AssistLevels          [9]AssistLevel
	DisplaylessMode       bool
	LampsAlwaysOn         bool
}

// TorqueProfile is one ride mode of the torque sensor curve
type TorqueProfile struct {
	StartTorque      uint8
	MaxTorque        uint8
	ReturnTorque     uint8
	MinCurrent       uint8  // %
	MaxCurrent       uint8  // %
	StartPulse       uint8
	CurrentDecayTime uint16 // ms, 5 ms steps
	StopDelay        uint16 // ms, 2 ms steps
}

// ControllerParameter2 is the 64 byte block on 0x60:0x12. Six 8 byte torque
// profiles start at offset 0, bytes 48-63 are written back as read.
type ControllerParameter2 struct {
	TorqueProfiles [6]TorqueProfile
}

type RideMode uint8

const (
	RideModeEco RideMode = iota
	RideModeBoost
)

func (r RideMode) String() string {
	if r == RideModeBoost {
		return "boost"
	}
	return "eco"
}

// WalkAssist is reported as current assist level while walk mode is active
const WalkAssist = 0x06

// DisplayState is broadcast by the display on 0x63:0x00
//
//	0  low nibble assist levels, high nibble ride mode
//	1  current assist level
//	2  bit 0 boost, bit 1 light, bit 2 button pressed
type DisplayState struct {
	AssistLevels       uint8
	RideMode           RideMode
	CurrentAssistLevel uint8
	Boost              bool
	Light              bool
	Button             bool
}

type DisplayData1 struct {
	TotalMileage  uint32  // km
	SingleMileage float64 // km, 0.1 steps
	MaxSpeed      float64 // km/h, 0.1 steps
}

type DisplayData2 struct {
	AverageSpeed   float64 // km/h, 0.1 steps
	ServiceMileage float64 // km, 0.1 steps
}

type SensorRealtime struct {
	Torque  uint16 // mV
	Cadence uint8  // rpm
}
