package gobafang

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// setLatencyTimer lowers the usb-serial buffer latency so short replies are not held back.
// Only ttyUSB ports backed by a usb-serial driver have the knob.
func setLatencyTimer(port string, latency int) error {
	path := filepath.Join("/sys/bus/usb-serial/devices", filepath.Base(port), "latency_timer")
	if err := os.WriteFile(path, []byte(strconv.Itoa(latency)), 0o644); err != nil {
		return fmt.Errorf("failed to set latency timer: %w", err)
	}
	return nil
}
