package codec

func decodeSensorRealtime(p []byte) (interface{}, error) {
	if err := need(p, 3); err != nil {
		return nil, err
	}
	return &SensorRealtime{
		Torque:  u16(p[0:]),
		Cadence: p[2],
	}, nil
}

func EncodeSensorRealtime(s *SensorRealtime) []byte {
	out := make([]byte, 3)
	putU16(out, s.Torque)
	out[2] = s.Cadence
	return out
}
