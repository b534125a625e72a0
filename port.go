package gobafang

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/avast/retry-go"
	"go.bug.st/serial"
)

// openPort opens a serial adapter port, retrying transient failures. A port
// that does not exist or may not be opened fails at once.
func openPort(ctx context.Context, cfg *AdapterConfig) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.PortBaudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	var port serial.Port
	err := retry.Do(func() error {
		p, err := serial.Open(cfg.Port, mode)
		if err != nil {
			return portError(cfg.Port, err)
		}
		port = p
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.RetryIf(IsRecoverable),
		retry.OnRetry(func(n uint, err error) {
			cfg.Logger.Warn("retry %d: %v", n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	if err := setLatencyTimer(cfg.Port, 1); err != nil {
		cfg.Logger.Debug("latency timer: %v", err)
	}
	return port, nil
}

func portError(name string, err error) error {
	err = fmt.Errorf("failed to open com port %q : %w", name, err)
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortNotFound, serial.PermissionDenied, serial.InvalidSerialPort:
			return Unrecoverable(err)
		}
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return Unrecoverable(err)
	}
	return err
}
