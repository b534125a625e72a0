package codec

import (
	"fmt"
)

const maxU24 = 0xFFFFFF

func decodeDisplayState(p []byte) (interface{}, error) {
	if err := need(p, 3); err != nil {
		return nil, err
	}
	return &DisplayState{
		AssistLevels:       p[0] & 0x0F,
		RideMode:           RideMode(p[0] >> 4),
		CurrentAssistLevel: p[1],
		Boost:              p[2]&0x01 != 0,
		Light:              p[2]&0x02 != 0,
		Button:             p[2]&0x04 != 0,
	}, nil
}

func EncodeDisplayState(s *DisplayState) ([]byte, error) {
	if s.AssistLevels > 0x0F || s.RideMode > 0x0F {
		return nil, fmt.Errorf("%w: assist levels %d ride mode %d", ErrOutOfRange, s.AssistLevels, s.RideMode)
	}
	out := []byte{uint8(s.RideMode)<<4 | s.AssistLevels, s.CurrentAssistLevel, 0}
	if s.Boost {
		out[2] |= 0x01
	}
	if s.Light {
		out[2] |= 0x02
	}
	if s.Button {
		out[2] |= 0x04
	}
	return out, nil
}

func decodeDisplayData1(p []byte) (interface{}, error) {
	if err := need(p, 8); err != nil {
		return nil, err
	}
	return &DisplayData1{
		TotalMileage:  u24(p[0:]),
		SingleMileage: float64(u24(p[3:])) / 10,
		MaxSpeed:      float64(u16(p[6:])) / 10,
	}, nil
}

func EncodeDisplayData1(d *DisplayData1) ([]byte, error) {
	out := make([]byte, 8)
	if d.TotalMileage > maxU24 {
		return nil, fmt.Errorf("%w: total mileage %d", ErrOutOfRange, d.TotalMileage)
	}
	putU24(out[0:], d.TotalMileage)
	single, err := unscale("single mileage", d.SingleMileage, 10, maxU24)
	if err != nil {
		return nil, err
	}
	putU24(out[3:], single)
	speed, err := scaled16("max speed", d.MaxSpeed, 10)
	if err != nil {
		return nil, err
	}
	putU16(out[6:], speed)
	return out, nil
}

func decodeDisplayData2(p []byte) (interface{}, error) {
	if err := need(p, 5); err != nil {
		return nil, err
	}
	return &DisplayData2{
		AverageSpeed:   float64(u16(p[0:])) / 10,
		ServiceMileage: float64(u24(p[2:])) / 10,
	}, nil
}

func EncodeDisplayData2(d *DisplayData2) ([]byte, error) {
	out := make([]byte, 5)
	speed, err := scaled16("average speed", d.AverageSpeed, 10)
	if err != nil {
		return nil, err
	}
	putU16(out[0:], speed)
	service, err := unscale("service mileage", d.ServiceMileage, 10, maxU24)
	if err != nil {
		return nil, err
	}
	putU24(out[2:], service)
	return out, nil
}

// display errors are one code per byte, zero bytes are padding
func decodeDisplayErrors(p []byte) (interface{}, error) {
	codes := make([]uint8, 0, len(p))
	for _, b := range p {
		if b != 0 {
			codes = append(codes, b)
		}
	}
	return codes, nil
}

func EncodeDisplayErrors(codes []uint8) []byte {
	out := make([]byte, len(codes))
	copy(out, codes)
	return out
}

// EncodeTotalMileage renders whole kilometers as a 3 byte integer
func EncodeTotalMileage(km uint32) ([]byte, error) {
	if km > maxU24 {
		return nil, fmt.Errorf("%w: total mileage %d", ErrOutOfRange, km)
	}
	out := make([]byte, 3)
	putU24(out, km)
	return out, nil
}

// EncodeSingleMileage renders km in 0.1 km steps as a 3 byte integer, 12.3
// becomes 123
func EncodeSingleMileage(km float64) ([]byte, error) {
	raw, err := unscale("single mileage", km, 10, maxU24)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 3)
	putU24(out, raw)
	return out, nil
}

// DecodeSingleMileage is the inverse of EncodeSingleMileage
func DecodeSingleMileage(p []byte) (float64, error) {
	if err := need(p, 3); err != nil {
		return 0, err
	}
	return float64(u24(p)) / 10, nil
}

// EncodeTime renders a wall clock time for the display
func EncodeTime(hours, minutes, seconds int) ([]byte, error) {
	if !ValidTime(hours, minutes, seconds) {
		return nil, fmt.Errorf("%w: time %02d:%02d:%02d", ErrOutOfRange, hours, minutes, seconds)
	}
	return []byte{byte(hours), byte(minutes), byte(seconds)}, nil
}

func ValidTime(hours, minutes, seconds int) bool {
	return hours >= 0 && hours <= 23 &&
		minutes >= 0 && minutes <= 59 &&
		seconds >= 0 && seconds <= 59
}
