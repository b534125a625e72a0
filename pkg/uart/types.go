package uart

// SpeedLimitByDisplay marks a speed limit or assist level taken from the display
const SpeedLimitByDisplay = 0xFF

type Info struct {
	Manufacturer    string
	Model           string
	HardwareVersion string
	FirmwareVersion string
	Voltage         string
	MaxCurrent      uint8
}

type AssistLevel struct {
	CurrentLimit uint8 // %
	SpeedLimit   uint8 // %
}

type SpeedmeterType uint8

const (
	SpeedmeterExternal SpeedmeterType = iota
	SpeedmeterInternal
	SpeedmeterMotorphase
)

func (s SpeedmeterType) String() string {
	switch s {
	case SpeedmeterExternal:
		return "external"
	case SpeedmeterInternal:
		return "internal"
	case SpeedmeterMotorphase:
		return "motorphase"
	}
	return "unknown"
}

type BasicParameters struct {
	LowBatteryProtection uint8 // V
	CurrentLimit         uint8 // A
	AssistLevels         [10]AssistLevel
	WheelDiameterCode    uint8
	SpeedmeterType       SpeedmeterType
	SpeedmeterSignals    uint8
}

type PedalType uint8

const (
	PedalNone PedalType = iota
	PedalDHSensor12
	PedalBBSensor32
	PedalDoubleSignal24
)

func (p PedalType) String() string {
	switch p {
	case PedalNone:
		return "none"
	case PedalDHSensor12:
		return "DH-Sensor-12"
	case PedalBBSensor32:
		return "BB-Sensor-32"
	case PedalDoubleSignal24:
		return "DoubleSignal-24"
	}
	return "unknown"
}

type PedalParameters struct {
	PedalType           PedalType
	DesignatedAssist    uint8  // 0-9 or SpeedLimitByDisplay
	SpeedLimit          uint8  // km/h or SpeedLimitByDisplay
	StartCurrent        uint8  // %
	SlowStartMode       uint8  // 1-8
	SignalsBeforeAssist uint8
	WorkMode            uint8  // 0xFF undetermined
	TimeOfStop          uint16 // ms, 10 ms steps
	CurrentDecay        uint8
	StopDecay           uint16 // ms, 10 ms steps
	KeepCurrent         uint8  // %
}

type ThrottleMode uint8

const (
	ThrottleSpeed ThrottleMode = iota
	ThrottleCurrent
)

func (m ThrottleMode) String() string {
	if m == ThrottleCurrent {
		return "current"
	}
	return "speed"
}

type ThrottleParameters struct {
	StartVoltage     float64 // V
	EndVoltage       float64 // V
	Mode             ThrottleMode
	DesignatedAssist uint8
	SpeedLimit       uint8
	StartCurrent     uint8 // %
}
