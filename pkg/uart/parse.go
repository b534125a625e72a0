package uart

import (
	"fmt"
	"strings"
)

func checkSize(code byte, data []byte) error {
	size, _ := BlockSize(code)
	if len(data) < size {
		return fmt.Errorf("block 0x%02X: short payload, want %d bytes got %d", code, size, len(data))
	}
	return nil
}

func voltageName(code byte) string {
	switch code {
	case 0:
		return "24V"
	case 1:
		return "36V"
	case 2:
		return "48V"
	case 3:
		return "60V"
	case 4:
		return "24V-48V"
	default:
		return "24V-60V"
	}
}

func ascii(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}

func ParseInfo(data []byte) (*Info, error) {
	if err := checkSize(CodeInfo, data); err != nil {
		return nil, err
	}
	return &Info{
		Manufacturer:    ascii(data[0:4]),
		Model:           ascii(data[4:8]),
		HardwareVersion: ascii(data[8:10]),
		FirmwareVersion: ascii(data[10:14]),
		Voltage:         voltageName(data[14]),
		MaxCurrent:      data[15],
	}, nil
}

func ParseBasic(data []byte) (*BasicParameters, error) {
	if err := checkSize(CodeBasic, data); err != nil {
		return nil, err
	}
	p := &BasicParameters{
		LowBatteryProtection: data[0],
		CurrentLimit:         data[1],
		WheelDiameterCode:    data[22],
		SpeedmeterType:       SpeedmeterType(data[23] >> 6),
		SpeedmeterSignals:    data[23] & 0x3F,
	}
	for i := range p.AssistLevels {
		p.AssistLevels[i] = AssistLevel{
			CurrentLimit: data[2+i],
			SpeedLimit:   data[12+i],
		}
	}
	return p, nil
}

func ParsePedal(data []byte) (*PedalParameters, error) {
	if err := checkSize(CodePedal, data); err != nil {
		return nil, err
	}
	return &PedalParameters{
		PedalType:           PedalType(data[0]),
		DesignatedAssist:    data[1],
		SpeedLimit:          data[2],
		StartCurrent:        data[3],
		SlowStartMode:       data[4],
		SignalsBeforeAssist: data[5],
		WorkMode:            data[6],
		TimeOfStop:          uint16(data[7]) * 10,
		CurrentDecay:        data[8],
		StopDecay:           uint16(data[9]) * 10,
		KeepCurrent:         data[10],
	}, nil
}

func ParseThrottle(data []byte) (*ThrottleParameters, error) {
	if err := checkSize(CodeThrottle, data); err != nil {
		return nil, err
	}
	return &ThrottleParameters{
		StartVoltage:     voltageFromByte(data[0]),
		EndVoltage:       voltageFromByte(data[1]),
		Mode:             ThrottleMode(data[2]),
		DesignatedAssist: data[3],
		SpeedLimit:       data[4],
		StartCurrent:     data[5],
	}, nil
}

// throttle voltages are sent in 0.1 V steps above 1.0 V
func voltageFromByte(b byte) float64 {
	return float64(int(b)+10) / 10
}
