package uart

import (
	"errors"
	"fmt"
)

type limit struct {
	name     string
	value    int
	min, max int
}

func checkLimits(limits ...limit) error {
	var errs []error
	for _, l := range limits {
		if l.value < l.min || l.value > l.max {
			errs = append(errs, fmt.Errorf("%w: %s %d not in %d-%d", ErrOutOfRange, l.name, l.value, l.min, l.max))
		}
	}
	return errors.Join(errs...)
}

// ValidateBasic checks values the motor accepts before a write
func ValidateBasic(p *BasicParameters, maxCurrent uint8) error {
	limits := []limit{
		{"current limit", int(p.CurrentLimit), 1, int(maxCurrent)},
		{"speedmeter signals", int(p.SpeedmeterSignals), 1, 0x3F},
	}
	for i, lvl := range p.AssistLevels {
		limits = append(limits,
			limit{fmt.Sprintf("assist %d current", i), int(lvl.CurrentLimit), 0, 100},
			limit{fmt.Sprintf("assist %d speed", i), int(lvl.SpeedLimit), 0, 100},
		)
	}
	return checkLimits(limits...)
}

func ValidatePedal(p *PedalParameters) error {
	limits := []limit{
		{"pedal type", int(p.PedalType), 0, int(PedalDoubleSignal24)},
		{"start current", int(p.StartCurrent), 1, 100},
		{"slow start mode", int(p.SlowStartMode), 1, 8},
		{"signals before assist", int(p.SignalsBeforeAssist), 1, 100},
		{"time of stop", int(p.TimeOfStop), 10, 1000},
		{"current decay", int(p.CurrentDecay), 1, 100},
		{"stop decay", int(p.StopDecay), 0, 500},
		{"keep current", int(p.KeepCurrent), 1, 100},
	}
	if p.DesignatedAssist != SpeedLimitByDisplay {
		limits = append(limits, limit{"designated assist", int(p.DesignatedAssist), 0, 9})
	}
	if p.SpeedLimit != SpeedLimitByDisplay {
		limits = append(limits, limit{"speed limit", int(p.SpeedLimit), 1, 60})
	}
	return checkLimits(limits...)
}

func ValidateThrottle(p *ThrottleParameters) error {
	limits := []limit{
		{"start voltage (dV)", int(p.StartVoltage*10 + 0.5), 10, 200},
		{"end voltage (dV)", int(p.EndVoltage*10 + 0.5), 10, 200},
		{"mode", int(p.Mode), 0, int(ThrottleCurrent)},
		{"start current", int(p.StartCurrent), 1, 100},
	}
	if p.DesignatedAssist != SpeedLimitByDisplay {
		limits = append(limits, limit{"designated assist", int(p.DesignatedAssist), 0, 9})
	}
	if p.SpeedLimit != SpeedLimitByDisplay {
		limits = append(limits, limit{"speed limit", int(p.SpeedLimit), 1, 60})
	}
	err := checkLimits(limits...)
	if p.EndVoltage < p.StartVoltage {
		err = errors.Join(err, fmt.Errorf("%w: end voltage %.1f V below start voltage %.1f V", ErrOutOfRange, p.EndVoltage, p.StartVoltage))
	}
	return err
}
