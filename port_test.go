package gobafang

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

func TestIsRecoverable(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain", base, true},
		{"unrecoverable", Unrecoverable(base), false},
		{"wrapped unrecoverable", fmt.Errorf("open: %w", Unrecoverable(base)), false},
		{"missing port", portError("/dev/ttyUSB9", fs.ErrNotExist), false},
		{"no permission", portError("/dev/ttyUSB9", fs.ErrPermission), false},
		{"transient", portError("/dev/ttyUSB9", base), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
	if !errors.Is(Unrecoverable(base), base) {
		t.Error("Unrecoverable hides the wrapped error")
	}
}

// a port that does not exist is not retried
func TestOpenPort_Missing(t *testing.T) {
	cfg := &AdapterConfig{Port: "/nonexistent/ttyBAFANG", PortBaudrate: 1200, Logger: NopLogger{}}
	start := time.Now()
	_, err := openPort(context.Background(), cfg)
	if err == nil {
		t.Fatal("opened a missing port")
	}
	if IsRecoverable(err) {
		t.Errorf("err = %v, want unrecoverable", err)
	}
	if d := time.Since(start); d > 150*time.Millisecond {
		t.Errorf("took %s, missing port was retried", d)
	}
}
