package gobafang

import (
	"bytes"
	"testing"
)

func TestWriteFrames(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		ops    []Operation
		chunks []int
	}{
		{"empty", 0, []Operation{OpWrite}, []int{0}},
		{"single", 8, []Operation{OpWrite}, []int{8}},
		{"two chunks", 9, []Operation{OpLongStart, OpLongData, OpLongEnd}, []int{1, 8, 1}},
		{"parameter block", 64, []Operation{OpLongStart, OpLongData, OpLongData, OpLongData, OpLongData, OpLongData, OpLongData, OpLongData, OpLongEnd}, []int{1, 8, 8, 8, 8, 8, 8, 8, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, tt.size)
			for i := range payload {
				payload[i] = byte(i)
			}
			frames, err := WriteFrames(DriveUnit, 0x60, 0x11, payload)
			if err != nil {
				t.Fatal(err)
			}
			if len(frames) != len(tt.ops) {
				t.Fatalf("got %d frames want %d", len(frames), len(tt.ops))
			}
			var joined []byte
			for i, f := range frames {
				if f.Op != tt.ops[i] {
					t.Errorf("frame %d op %s want %s", i, f.Op, tt.ops[i])
				}
				if len(f.Payload) != tt.chunks[i] {
					t.Errorf("frame %d carries %d bytes want %d", i, len(f.Payload), tt.chunks[i])
				}
				if f.Source != Besst || f.Target != DriveUnit || f.Command != 0x60 {
					t.Errorf("frame %d header %s", i, f)
				}
				switch f.Op {
				case OpLongStart:
					if f.SubCommand != 0x11 || f.Payload[0] != byte(tt.size) {
						t.Errorf("start frame %s", f)
					}
				case OpLongData, OpLongEnd:
					if f.SubCommand != uint8(i-1) {
						t.Errorf("chunk %d has index %d", i-1, f.SubCommand)
					}
					joined = append(joined, f.Payload...)
				}
			}
			if len(frames) > 1 && !bytes.Equal(joined, payload) {
				t.Errorf("chunks join to %X", joined)
			}
		})
	}
}

func TestWriteFrames_TooLong(t *testing.T) {
	if _, err := WriteFrames(DriveUnit, 0x60, 0x11, make([]byte, MaxLongPayload+1)); err == nil {
		t.Fatal("accepted payload above the long write limit")
	}
}

func longResponse(payload []byte) []*Frame {
	frames, _ := WriteFrames(Besst, 0x60, 0x11, payload)
	out := make([]*Frame, 0, len(frames))
	for _, f := range frames {
		out = append(out, NewFrame(DriveUnit, Besst, f.Op, f.Command, f.SubCommand, f.Payload))
	}
	return out
}

func TestReassembler(t *testing.T) {
	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(0xFF - i)
	}
	r := NewReassembler()
	frames := longResponse(payload)
	for i, f := range frames[:len(frames)-1] {
		if out := r.Feed(f); out != nil {
			t.Fatalf("frame %d produced %s before the end", i, out)
		}
	}
	out := r.Feed(frames[len(frames)-1])
	if out == nil {
		t.Fatal("no frame after long end")
	}
	if out.Op != OpNormalAck || out.Source != DriveUnit || out.Command != 0x60 || out.SubCommand != 0x11 {
		t.Errorf("reassembled header %s", out)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Errorf("reassembled payload %X", out.Payload)
	}
}

func TestReassembler_OutOfSequence(t *testing.T) {
	r := NewReassembler()
	frames := longResponse(make([]byte, 20))
	r.Feed(frames[0])
	if out := r.Feed(frames[2]); out != nil {
		t.Fatalf("skipped chunk produced %s", out)
	}
	if out := r.Feed(frames[3]); out == nil || out.Op != OpLongEnd {
		t.Fatalf("dropped transfer should pass frames through, got %v", out)
	}
}

func TestReassembler_PassThrough(t *testing.T) {
	r := NewReassembler()
	f := NewFrame(DriveUnit, Besst, OpNormalAck, 0x60, 0x00, []byte("HW\x00"))
	if out := r.Feed(f); out != f {
		t.Fatal("short response was not passed through")
	}
	lx := NewFrame(DriveUnit, Besst, OpLongError, 0x60, 0x11, nil)
	r.Feed(longResponse(make([]byte, 20))[0])
	out := r.Feed(lx)
	if out == nil || out.Op != OpLongError || out.SubCommand != 0x11 {
		t.Fatalf("long error got %v", out)
	}
}
