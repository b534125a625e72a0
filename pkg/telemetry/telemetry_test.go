package telemetry

import (
	"testing"

	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/uart"
)

func TestKebab(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Speed", "speed"},
		{"RemainingCapacity", "remaining-capacity"},
		{"MotorMaxRotorRPM", "motor-max-rotor-rpm"},
		{"MotorDAxisInductance", "motor-d-axis-inductance"},
		{"CANRate", "can-rate"},
	}
	for _, tt := range tests {
		if got := kebab(tt.in); got != tt.want {
			t.Errorf("kebab(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten("r1", &codec.ControllerRealtime1{Speed: 24.5, Temperature: 30, HasMotorTemperature: true})
	want := map[string]interface{}{
		"r1:speed":                 24.5,
		"r1:current":               0.0,
		"r1:voltage":               0.0,
		"r1:temperature":           int16(30),
		"r1:motor-temperature":     int16(0),
		"r1:has-motor-temperature": "on",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d fields want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %#v, want %#v", k, got[k], v)
		}
	}
}

func TestFlatten_Nested(t *testing.T) {
	p := &uart.BasicParameters{SpeedmeterType: uart.SpeedmeterInternal}
	p.AssistLevels[0].CurrentLimit = 50
	got := Flatten("basic", p)
	if got["basic:assist-levels:1:current-limit"] != uint8(50) {
		t.Errorf("assist level 1 = %#v", got["basic:assist-levels:1:current-limit"])
	}
	if _, found := got["basic:assist-levels:10:speed-limit"]; !found {
		t.Error("missing last assist level")
	}
	if got["basic:speedmeter-type"] != "internal" {
		t.Errorf("speedmeter type = %#v", got["basic:speedmeter-type"])
	}
}

func TestFlatten_Scalars(t *testing.T) {
	if got := Flatten("hv", "CR X10V"); got["hv"] != "CR X10V" {
		t.Errorf("string = %v", got)
	}
	if got := Flatten("errors", []uint8{0x21, 0x25}); got["errors"] != "2125" {
		t.Errorf("errors = %v", got)
	}
	var nilState *codec.DisplayState
	if got := Flatten("state", nilState); got["state"] != "" {
		t.Errorf("nil = %v", got)
	}
}
