//go:build !linux

package gobafang

func setLatencyTimer(port string, latency int) error {
	return nil
}
