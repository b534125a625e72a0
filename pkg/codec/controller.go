package codec

import (
	"fmt"
)

const (
	Parameter1Size = 64
	Parameter2Size = 64

	noTemperatureSensor = 0xFF
	temperatureOffset   = 40
)

func decodeRealtime0(p []byte) (interface{}, error) {
	if err := need(p, 8); err != nil {
		return nil, err
	}
	return &ControllerRealtime0{
		RemainingCapacity: p[0],
		SingleTrip:        float64(u16(p[1:])) / 100,
		Cadence:           p[3],
		Torque:            u16(p[4:]),
		RemainingDistance: float64(u16(p[6:])) / 100,
	}, nil
}

func EncodeRealtime0(r *ControllerRealtime0) ([]byte, error) {
	w := newBlockWriter(nil, 8)
	w.u8(0, r.RemainingCapacity)
	w.scaled16(1, "single trip", r.SingleTrip, 100)
	w.u8(3, r.Cadence)
	w.u16(4, r.Torque)
	w.scaled16(6, "remaining distance", r.RemainingDistance, 100)
	return w.bytes()
}

func decodeRealtime1(p []byte) (interface{}, error) {
	if err := need(p, 8); err != nil {
		return nil, err
	}
	r := &ControllerRealtime1{
		Speed:       float64(u16(p[0:])) / 100,
		Current:     float64(u16(p[2:])) / 100,
		Voltage:     float64(u16(p[4:])) / 100,
		Temperature: int16(p[6]) - temperatureOffset,
	}
	if p[7] != noTemperatureSensor {
		r.MotorTemperature = int16(p[7]) - temperatureOffset
		r.HasMotorTemperature = true
	}
	return r, nil
}

// encodeTemperature renders t with the offset, raw values above limit are
// rejected. The motor byte reserves 0xFF for a missing sensor.
func encodeTemperature(name string, t int16, limit int) (uint8, error) {
	raw := int(t) + temperatureOffset
	if raw < 0 || raw > limit {
		return 0, fmt.Errorf("%w: %s %d °C", ErrOutOfRange, name, t)
	}
	return uint8(raw), nil
}

func EncodeRealtime1(r *ControllerRealtime1) ([]byte, error) {
	w := newBlockWriter(nil, 8)
	w.scaled16(0, "speed", r.Speed, 100)
	w.scaled16(2, "current", r.Current, 100)
	w.scaled16(4, "voltage", r.Voltage, 100)
	out, err := w.bytes()
	if err != nil {
		return nil, err
	}
	if out[6], err = encodeTemperature("temperature", r.Temperature, 0xFF); err != nil {
		return nil, err
	}
	out[7] = noTemperatureSensor
	if r.HasMotorTemperature {
		if out[7], err = encodeTemperature("motor temperature", r.MotorTemperature, noTemperatureSensor-1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeSpeedParameters(p []byte) (interface{}, error) {
	if err := need(p, 6); err != nil {
		return nil, err
	}
	return &SpeedParameters{
		SpeedLimit:    float64(u16(p[0:])) / 100,
		WheelDiameter: u16(p[2:]),
		Circumference: u16(p[4:]),
	}, nil
}

func EncodeSpeedParameters(s *SpeedParameters) ([]byte, error) {
	w := newBlockWriter(nil, 6)
	w.scaled16(0, "speed limit", s.SpeedLimit, 100)
	w.u16(2, s.WheelDiameter)
	w.u16(4, s.Circumference)
	return w.bytes()
}

func decodeParameter1(p []byte) (interface{}, error) {
	if err := need(p, Parameter1Size); err != nil {
		return nil, err
	}
	r := &ControllerParameter1{
		SystemVoltage:         p[0],
		CurrentLimit:          p[1],
		OverVoltage:           p[2],
		UnderVoltageUnderLoad: p[3],
		UnderVoltage:          p[4],
		BatteryCapacity:       u16(p[5:]),
		MaxCurrentOnLowCharge: p[7],
		FullCapacityRange:     p[8],
		PedalSensorType:       p[9],
		CoasterBrake:          p[10] != 0,
		PedalSensorSignals:    p[11],
		SpeedSensorChannels:   p[12],
		MotorType:             p[13],
		MotorPolePairs:        p[14],
		SpeedmeterMagnets:     p[15],
		TemperatureSensorType: p[16],
		DecelerationRatio:     float64(u16(p[17:])) / 100,
		MotorMaxRotorRPM:      u16(p[19:]),
		MotorDAxisInductance:  u16(p[21:]),
		MotorQAxisInductance:  u16(p[23:]),
		MotorPhaseResistance:  u16(p[25:]),
		MotorReversePotential: u16(p[27:]),
		ThrottleStartVoltage:  float64(p[29]) / 10,
		ThrottleMaxVoltage:    float64(p[30]) / 10,
		StartCurrent:          p[31],
		CurrentLoadingTime:    float64(p[32]) / 10,
		CurrentSheddingTime:   float64(p[33]) / 10,
		DisplaylessMode:       p[52] != 0,
		LampsAlwaysOn:         p[53] != 0,
	}
	for i := range r.AssistLevels {
		r.AssistLevels[i] = AssistLevel{
			CurrentLimit: p[34+i*2],
			SpeedLimit:   p[35+i*2],
		}
	}
	return r, nil
}

// EncodeParameter1 overlays r onto a copy of raw, the block as read from the
// controller
func EncodeParameter1(r *ControllerParameter1, raw []byte) ([]byte, error) {
	if len(raw) < Parameter1Size {
		return nil, fmt.Errorf("parameter 1 base block: %w", ErrShortPayload)
	}
	w := newBlockWriter(raw, Parameter1Size)
	w.u8(0, r.SystemVoltage)
	w.u8(1, r.CurrentLimit)
	w.u8(2, r.OverVoltage)
	w.u8(3, r.UnderVoltageUnderLoad)
	w.u8(4, r.UnderVoltage)
	w.u16(5, r.BatteryCapacity)
	w.u8(7, r.MaxCurrentOnLowCharge)
	w.u8(8, r.FullCapacityRange)
	w.u8(9, r.PedalSensorType)
	w.flag(10, r.CoasterBrake)
	w.u8(11, r.PedalSensorSignals)
	w.u8(12, r.SpeedSensorChannels)
	w.u8(13, r.MotorType)
	w.u8(14, r.MotorPolePairs)
	w.u8(15, r.SpeedmeterMagnets)
	w.u8(16, r.TemperatureSensorType)
	w.scaled16(17, "deceleration ratio", r.DecelerationRatio, 100)
	w.u16(19, r.MotorMaxRotorRPM)
	w.u16(21, r.MotorDAxisInductance)
	w.u16(23, r.MotorQAxisInductance)
	w.u16(25, r.MotorPhaseResistance)
	w.u16(27, r.MotorReversePotential)
	w.scaled8(29, "throttle start voltage", r.ThrottleStartVoltage, 10)
	w.scaled8(30, "throttle max voltage", r.ThrottleMaxVoltage, 10)
	w.u8(31, r.StartCurrent)
	w.scaled8(32, "current loading time", r.CurrentLoadingTime, 10)
	w.scaled8(33, "current shedding time", r.CurrentSheddingTime, 10)
	for i, lvl := range r.AssistLevels {
		w.u8(34+i*2, lvl.CurrentLimit)
		w.u8(35+i*2, lvl.SpeedLimit)
	}
	w.flag(52, r.DisplaylessMode)
	w.flag(53, r.LampsAlwaysOn)
	return w.bytes()
}

const torqueProfileSize = 8

func decodeParameter2(p []byte) (interface{}, error) {
	if err := need(p, Parameter2Size); err != nil {
		return nil, err
	}
	r := &ControllerParameter2{}
	for i := range r.TorqueProfiles {
		b := p[i*torqueProfileSize:]
		r.TorqueProfiles[i] = TorqueProfile{
			StartTorque:      b[0],
			MaxTorque:        b[1],
			ReturnTorque:     b[2],
			MinCurrent:       b[3],
			MaxCurrent:       b[4],
			StartPulse:       b[5],
			CurrentDecayTime: uint16(b[6]) * 5,
			StopDelay:        uint16(b[7]) * 2,
		}
	}
	return r, nil
}

// EncodeParameter2 overlays r onto a copy of raw, the block as read from the
// controller
func EncodeParameter2(r *ControllerParameter2, raw []byte) ([]byte, error) {
	if len(raw) < Parameter2Size {
		return nil, fmt.Errorf("parameter 2 base block: %w", ErrShortPayload)
	}
	w := newBlockWriter(raw, Parameter2Size)
	for i, tp := range r.TorqueProfiles {
		off := i * torqueProfileSize
		w.u8(off, tp.StartTorque)
		w.u8(off+1, tp.MaxTorque)
		w.u8(off+2, tp.ReturnTorque)
		w.u8(off+3, tp.MinCurrent)
		w.u8(off+4, tp.MaxCurrent)
		w.u8(off+5, tp.StartPulse)
		w.stepped8(off+6, fmt.Sprintf("profile %d current decay time", i), tp.CurrentDecayTime, 5)
		w.stepped8(off+7, fmt.Sprintf("profile %d stop delay", i), tp.StopDelay, 2)
	}
	return w.bytes()
}
