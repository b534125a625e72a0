package gobafang

import (
	"bytes"
	"testing"
)

func TestFrame_Identifier(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  uint32
	}{
		{"read hardware version", NewFrame(Besst, DriveUnit, OpRead, 0x60, 0x00, nil), 0x05116000},
		{"ack", NewFrame(DriveUnit, Besst, OpNormalAck, 0x60, 0x11, nil), 0x022A6011},
		{"broadcast realtime", NewFrame(DriveUnit, Broadcast, OpWrite, 0x32, 0x01, nil), 0x02F83201},
		{"long end", NewFrame(Besst, Display, OpLongEnd, 0x60, 0x07, nil), 0x051E6007},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Identifier(); got != tt.want {
				t.Errorf("Identifier() = 0x%08X, want 0x%08X", got, tt.want)
			}
			f, err := FrameFromCAN(tt.want, []byte{1, 2})
			if err != nil {
				t.Fatal(err)
			}
			if f.Source != tt.frame.Source || f.Target != tt.frame.Target || f.Op != tt.frame.Op ||
				f.Command != tt.frame.Command || f.SubCommand != tt.frame.SubCommand {
				t.Errorf("FrameFromCAN() = %s, want header of %s", f, tt.frame)
			}
		})
	}
}

func TestFrameFromCAN_Invalid(t *testing.T) {
	if _, err := FrameFromCAN(0x20000000, nil); err == nil {
		t.Error("accepted identifier wider than 29 bits")
	}
	if _, err := FrameFromCAN(0x05116000, make([]byte, 9)); err == nil {
		t.Error("accepted 9 data bytes")
	}
}

func TestNewFrame_CopiesPayload(t *testing.T) {
	p := []byte{1, 2, 3}
	f := NewFrame(Besst, DriveUnit, OpWrite, 0x62, 0x00, p)
	p[0] = 9
	if !bytes.Equal(f.Payload, []byte{1, 2, 3}) {
		t.Errorf("payload shares memory with caller: %X", f.Payload)
	}
}

func TestFrame_IsResponse(t *testing.T) {
	tests := []struct {
		op       Operation
		response bool
		isError  bool
	}{
		{OpWrite, false, false},
		{OpRead, false, false},
		{OpNormalAck, true, false},
		{OpErrorAck, true, true},
		{OpLongStart, false, false},
		{OpLongData, false, false},
		{OpLongEnd, false, false},
		{OpLongError, true, true},
	}
	for _, tt := range tests {
		f := NewFrame(DriveUnit, Besst, tt.op, 0x60, 0x00, nil)
		if f.IsResponse() != tt.response {
			t.Errorf("%s: IsResponse() = %v", tt.op, f.IsResponse())
		}
		if f.IsError() != tt.isError {
			t.Errorf("%s: IsError() = %v", tt.op, f.IsError())
		}
	}
}
