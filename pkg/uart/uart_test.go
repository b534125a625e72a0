package uart

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", nil, 0},
		{"single", []byte{0x52}, 0x52},
		{"overflow", []byte{0xFF, 0x02}, 0x01},
		{"write header", []byte{0x16, 0x54, 0x06}, 0x70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestReadRequest(t *testing.T) {
	tests := []struct {
		code    byte
		want    []byte
		wantErr bool
	}{
		{CodeInfo, []byte{0x11, 0x51, 0x04, 0xB0, 0x05}, false},
		{CodeBasic, []byte{0x11, 0x52}, false},
		{CodePedal, []byte{0x11, 0x53}, false},
		{CodeThrottle, []byte{0x11, 0x54}, false},
		{0x60, nil, true},
	}
	for _, tt := range tests {
		got, err := ReadRequest(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("ReadRequest(0x%02X) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("ReadRequest(0x%02X) = % X, want % X", tt.code, got, tt.want)
		}
	}
}

func TestWriteRequest(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	got, err := WriteRequest(CodeThrottle, data)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x16, 0x54, 0x06, 1, 2, 3, 4, 5, 6, 0x70 + 21}
	if !bytes.Equal(got, want) {
		t.Errorf("WriteRequest() = % X, want % X", got, want)
	}
	if _, err := WriteRequest(CodeThrottle, data[:5]); err == nil {
		t.Error("WriteRequest() with short data should fail")
	}
	if _, err := WriteRequest(CodeInfo, make([]byte, InfoSize)); !errors.Is(err, ErrUnknownCode) {
		t.Errorf("WriteRequest(info) error = %v, want ErrUnknownCode", err)
	}
}

func TestDecoder_Read(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	wire := EncodeReply(CodeThrottle, data)

	var d Decoder
	d.Expect(CmdRead, CodeThrottle)
	// noise before the reply and the reply split in two reads
	r, err := d.Feed(append([]byte{0x00, 0x99}, wire[:3]...))
	if err != nil || r != nil {
		t.Fatalf("Feed() partial = %v, %v", r, err)
	}
	r, err = d.Feed(wire[3:])
	if err != nil {
		t.Fatal(err)
	}
	if r == nil {
		t.Fatal("Feed() returned no reply")
	}
	if r.Code != CodeThrottle || r.Command != CmdRead || !bytes.Equal(r.Data, data) {
		t.Errorf("Feed() = %+v", r)
	}

	// disarmed after a reply
	if r, _ := d.Feed(wire); r != nil {
		t.Error("Feed() should ignore bytes while nothing is expected")
	}
}

func TestDecoder_Checksum(t *testing.T) {
	wire := EncodeReply(CodePedal, make([]byte, PedalSize))
	wire[len(wire)-1]++
	var d Decoder
	d.Expect(CmdRead, CodePedal)
	if _, err := d.Feed(wire); !errors.Is(err, ErrChecksum) {
		t.Errorf("Feed() error = %v, want ErrChecksum", err)
	}
}

func TestDecoder_WriteAck(t *testing.T) {
	var d Decoder
	d.Expect(CmdWrite, CodeBasic)
	r, err := d.Feed([]byte{CodeBasic})
	if err != nil || r != nil {
		t.Fatalf("Feed() partial = %v, %v", r, err)
	}
	r, err = d.Feed([]byte{BasicSize})
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || r.Command != CmdWrite || !bytes.Equal(r.Data, []byte{BasicSize}) {
		t.Errorf("Feed() = %+v", r)
	}
}

func TestDecoder_Reset(t *testing.T) {
	var d Decoder
	d.Expect(CmdRead, CodeBasic)
	d.Feed([]byte{CodeBasic, BasicSize, 1, 2})
	d.Reset()
	if r, _ := d.Feed(EncodeReply(CodeBasic, make([]byte, BasicSize))); r != nil {
		t.Error("Feed() after Reset should not produce a reply")
	}
}

func TestParseInfo(t *testing.T) {
	data := []byte("HZXTSZZ6" + "22" + "1103")
	data = append(data, 2, 25)
	info, err := ParseInfo(data)
	if err != nil {
		t.Fatal(err)
	}
	want := &Info{
		Manufacturer:    "HZXT",
		Model:           "SZZ6",
		HardwareVersion: "22",
		FirmwareVersion: "1103",
		Voltage:         "48V",
		MaxCurrent:      25,
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("ParseInfo() = %+v, want %+v", info, want)
	}
	if _, err := ParseInfo(data[:10]); err == nil {
		t.Error("ParseInfo() with short data should fail")
	}
}

func TestBasic_RoundTrip(t *testing.T) {
	in := &BasicParameters{
		LowBatteryProtection: 41,
		CurrentLimit:         25,
		WheelDiameterCode:    0x37,
		SpeedmeterType:       SpeedmeterInternal,
		SpeedmeterSignals:    1,
	}
	for i := range in.AssistLevels {
		in.AssistLevels[i] = AssistLevel{CurrentLimit: uint8(i * 10), SpeedLimit: 100}
	}
	data, err := SerializeBasic(in)
	if err != nil {
		t.Fatal(err)
	}
	if data[23] != 0x41 {
		t.Errorf("speedmeter byte = 0x%02X, want 0x41", data[23])
	}
	out, err := ParseBasic(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestPedal_RoundTrip(t *testing.T) {
	in := &PedalParameters{
		PedalType:           PedalBBSensor32,
		DesignatedAssist:    SpeedLimitByDisplay,
		SpeedLimit:          SpeedLimitByDisplay,
		StartCurrent:        10,
		SlowStartMode:       4,
		SignalsBeforeAssist: 8,
		WorkMode:            0xFF,
		TimeOfStop:          250,
		CurrentDecay:        8,
		StopDecay:           0,
		KeepCurrent:         60,
	}
	data, err := SerializePedal(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != PedalSize {
		t.Fatalf("len = %d, want %d", len(data), PedalSize)
	}
	out, err := ParsePedal(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if err := ValidatePedal(in); err != nil {
		t.Errorf("ValidatePedal() = %v", err)
	}
}

func TestThrottle_RoundTrip(t *testing.T) {
	in := &ThrottleParameters{
		StartVoltage:     1.1,
		EndVoltage:       4.2,
		Mode:             ThrottleCurrent,
		DesignatedAssist: 3,
		SpeedLimit:       SpeedLimitByDisplay,
		StartCurrent:     10,
	}
	data, err := SerializeThrottle(in)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != 1 || data[1] != 32 {
		t.Errorf("voltages = %d/%d, want 1/32", data[0], data[1])
	}
	out, err := ParseThrottle(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if _, err := SerializeThrottle(&ThrottleParameters{StartVoltage: 0.5}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SerializeThrottle() error = %v, want ErrOutOfRange", err)
	}
}

func TestValidateThrottle(t *testing.T) {
	tests := []struct {
		name    string
		p       ThrottleParameters
		wantErr bool
	}{
		{"ok", ThrottleParameters{StartVoltage: 1.1, EndVoltage: 4.2, StartCurrent: 10, SpeedLimit: 25}, false},
		{"inverted", ThrottleParameters{StartVoltage: 4.2, EndVoltage: 1.1, StartCurrent: 10, SpeedLimit: 25}, true},
		{"no start current", ThrottleParameters{StartVoltage: 1.1, EndVoltage: 4.2, SpeedLimit: 25}, true},
		{"assist by display", ThrottleParameters{StartVoltage: 1.1, EndVoltage: 4.2, StartCurrent: 10, DesignatedAssist: SpeedLimitByDisplay, SpeedLimit: SpeedLimitByDisplay}, false},
		{"assist too high", ThrottleParameters{StartVoltage: 1.1, EndVoltage: 4.2, StartCurrent: 10, DesignatedAssist: 12, SpeedLimit: 25}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThrottle(&tt.p)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateThrottle() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBasic(t *testing.T) {
	p := &BasicParameters{CurrentLimit: 30, SpeedmeterSignals: 1}
	if err := ValidateBasic(p, 25); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ValidateBasic() error = %v, want ErrOutOfRange", err)
	}
	p.CurrentLimit = 20
	if err := ValidateBasic(p, 25); err != nil {
		t.Errorf("ValidateBasic() error = %v", err)
	}
}
