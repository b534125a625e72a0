package uart

import (
	"errors"
	"fmt"
	"math"
)

var ErrOutOfRange = errors.New("value out of range")

func SerializeBasic(p *BasicParameters) ([]byte, error) {
	if p.SpeedmeterType > 3 || p.SpeedmeterSignals > 0x3F {
		return nil, fmt.Errorf("%w: speedmeter %d/%d", ErrOutOfRange, p.SpeedmeterType, p.SpeedmeterSignals)
	}
	data := make([]byte, BasicSize)
	data[0] = p.LowBatteryProtection
	data[1] = p.CurrentLimit
	for i, lvl := range p.AssistLevels {
		data[2+i] = lvl.CurrentLimit
		data[12+i] = lvl.SpeedLimit
	}
	data[22] = p.WheelDiameterCode
	data[23] = byte(p.SpeedmeterType)<<6 | p.SpeedmeterSignals
	return data, nil
}

func SerializePedal(p *PedalParameters) ([]byte, error) {
	if p.TimeOfStop > 2550 || p.StopDecay > 2550 {
		return nil, fmt.Errorf("%w: time of stop %d ms, stop decay %d ms", ErrOutOfRange, p.TimeOfStop, p.StopDecay)
	}
	return []byte{
		byte(p.PedalType),
		p.DesignatedAssist,
		p.SpeedLimit,
		p.StartCurrent,
		p.SlowStartMode,
		p.SignalsBeforeAssist,
		p.WorkMode,
		byte(p.TimeOfStop / 10),
		p.CurrentDecay,
		byte(p.StopDecay / 10),
		p.KeepCurrent,
	}, nil
}

func SerializeThrottle(p *ThrottleParameters) ([]byte, error) {
	start, err := voltageToByte(p.StartVoltage)
	if err != nil {
		return nil, err
	}
	end, err := voltageToByte(p.EndVoltage)
	if err != nil {
		return nil, err
	}
	return []byte{
		start,
		end,
		byte(p.Mode),
		p.DesignatedAssist,
		p.SpeedLimit,
		p.StartCurrent,
	}, nil
}

func voltageToByte(v float64) (byte, error) {
	raw := math.Round((v - 1.0) * 10)
	if raw < 0 || raw > 0xFF {
		return 0, fmt.Errorf("%w: throttle voltage %.1f V", ErrOutOfRange, v)
	}
	return byte(raw), nil
}
