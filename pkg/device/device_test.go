package device

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/request"
	"github.com/roffe/gobafang/pkg/uart"
)

// bus answers requests the way a unit would
type bus struct {
	mu      sync.Mutex
	mgr     *request.Manager
	sent    []*gobafang.Frame
	reply   func(f *gobafang.Frame) *gobafang.Frame
	longSub uint8
}

func (b *bus) Send(f *gobafang.Frame) error {
	b.mu.Lock()
	b.sent = append(b.sent, f)
	var resp *gobafang.Frame
	switch f.Op {
	case gobafang.OpLongStart:
		b.longSub = f.SubCommand
	case gobafang.OpLongData:
	case gobafang.OpLongEnd:
		if b.reply != nil {
			resp = b.reply(gobafang.NewFrame(f.Source, f.Target, gobafang.OpWrite, f.Command, b.longSub, nil))
		}
	default:
		if b.reply != nil {
			resp = b.reply(f)
		}
	}
	mgr := b.mgr
	b.mu.Unlock()
	if resp != nil {
		go mgr.OnFrame(resp)
	}
	return nil
}

func (b *bus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func ackFrame(f *gobafang.Frame, payload []byte) *gobafang.Frame {
	return gobafang.NewFrame(f.Target, gobafang.Besst, gobafang.OpNormalAck, f.Command, f.SubCommand, payload)
}

func newBus(t *testing.T, reply func(*gobafang.Frame) *gobafang.Frame, opts ...request.Opt) (*request.Manager, *bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b := &bus{reply: reply}
	opts = append([]request.Opt{request.WithTimeout(50 * time.Millisecond), request.WithRetries(0)}, opts...)
	m := request.New(ctx, b, opts...)
	b.mu.Lock()
	b.mgr = m
	b.mu.Unlock()
	return m, b
}

func withDelays(read, write time.Duration) Opt {
	return func(b *base) {
		b.readDelay = read
		b.writeDelay = write
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func must(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

func controllerReplies() map[codec.Key][]byte {
	p1 := make([]byte, codec.Parameter1Size)
	p1[0] = 48
	p1[60] = 0xAB
	p2 := make([]byte, codec.Parameter2Size)
	p2[1] = 80
	return map[codec.Key][]byte{
		codec.KeyHardwareVersion: []byte("HW1\x00"),
		codec.KeySoftwareVersion: []byte("SW2\x00"),
		codec.KeyModelNumber:     []byte("M500\x00"),
		codec.KeySerialNumber:    []byte("SN\x00"),
		codec.KeyManufacturer:    []byte("BAFANG\x00"),
		codec.KeySpeedParameters: must(codec.EncodeSpeedParameters(&codec.SpeedParameters{SpeedLimit: 25, WheelDiameter: 0x1C, Circumference: 2200})),
		codec.KeyParameter1:      p1,
		codec.KeyParameter2:      p2,
	}
}

func answer(replies map[codec.Key][]byte, reject codec.Key) func(*gobafang.Frame) *gobafang.Frame {
	return func(f *gobafang.Frame) *gobafang.Frame {
		k := codec.Key{Command: f.Command, SubCommand: f.SubCommand}
		if f.Op != gobafang.OpRead {
			return ackFrame(f, nil)
		}
		if k == reject {
			return gobafang.NewFrame(f.Target, gobafang.Besst, gobafang.OpErrorAck, f.Command, f.SubCommand, nil)
		}
		payload, found := replies[k]
		if !found {
			return nil
		}
		return ackFrame(f, payload)
	}
}

func TestController_Load(t *testing.T) {
	ctx := testCtx(t)
	mgr, _ := newBus(t, answer(controllerReplies(), codec.Key{}))
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	s, f, err := c.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 8 || f != 0 {
		t.Fatalf("got (%d, %d) want (8, 0)", s, f)
	}
	if got := c.HardwareVersion(); got != "HW1" {
		t.Errorf("hardware version %q", got)
	}
	if got := c.Manufacturer(); got != "BAFANG" {
		t.Errorf("manufacturer %q", got)
	}
	if p := c.SpeedParameters(); p == nil || p.Circumference != 2200 {
		t.Errorf("speed parameters %+v", p)
	}
	if p := c.Parameter1(); p == nil || p.SystemVoltage != 48 {
		t.Errorf("parameter 1 %+v", p)
	}
	if raw := c.Parameter1Raw(); len(raw) != codec.Parameter1Size || raw[60] != 0xAB {
		t.Errorf("parameter 1 raw %X", raw)
	}
	if !c.Available() {
		t.Error("controller should be available after a load")
	}
}

func TestController_LoadPartialFailure(t *testing.T) {
	ctx := testCtx(t)
	mgr, _ := newBus(t, answer(controllerReplies(), codec.KeyParameter2))
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	s, f, err := c.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 7 || f != 1 {
		t.Fatalf("got (%d, %d) want (7, 1)", s, f)
	}
	if c.Parameter2() != nil {
		t.Error("rejected block should stay unset")
	}
}

func TestController_LoadNoTransport(t *testing.T) {
	ctx := testCtx(t)
	c := NewController(ctx, nil, nil)
	defer c.Close()

	s, f, err := c.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 0 || f != 8 {
		t.Fatalf("got (%d, %d) want (0, 8)", s, f)
	}
	if err := c.CalibratePositionSensor(ctx); !errors.Is(err, ErrNoTransport) {
		t.Fatalf("got %v want ErrNoTransport", err)
	}
}

func TestController_ReadingGuard(t *testing.T) {
	ctx := testCtx(t)
	mgr, b := newBus(t, nil)
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	sub := c.Subscribe(16)
	defer sub.Close()
	c.LoadData()
	c.LoadData()

	var finishes []Event
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case e := <-sub.C():
			if e.Type == EventReadFinish {
				finishes = append(finishes, e)
			}
		case <-deadline:
			break loop
		}
	}
	if len(finishes) != 1 {
		t.Fatalf("got %d read-finish events want 1", len(finishes))
	}
	if finishes[0].Success != 0 || finishes[0].Failure != 8 {
		t.Errorf("got %s", finishes[0])
	}
	if n := b.count(); n != 8 {
		t.Errorf("sent %d frames want 8", n)
	}
}

func TestController_Telemetry(t *testing.T) {
	ctx := testCtx(t)
	frames := make(chan *gobafang.Frame, 1)
	c := NewController(ctx, nil, frames)
	defer c.Close()

	sub := c.Subscribe(4)
	defer sub.Close()

	payload := must(codec.EncodeRealtime1(&codec.ControllerRealtime1{Speed: 24.5, Voltage: 51.3, Temperature: 30}))
	frames <- gobafang.NewFrame(gobafang.DriveUnit, gobafang.Broadcast, gobafang.OpWrite, codec.KeyRealtime1.Command, codec.KeyRealtime1.SubCommand, payload)

	select {
	case e := <-sub.C():
		if e.Name() != "data-r1" {
			t.Fatalf("got event %s", e.Name())
		}
		r := e.Value.(*codec.ControllerRealtime1)
		if r.Speed != 24.5 {
			t.Errorf("speed %v", r.Speed)
		}
	case <-time.After(time.Second):
		t.Fatal("no telemetry event")
	}
	if r := c.Realtime1(); r == nil || r.Temperature != 30 {
		t.Errorf("realtime 1 %+v", r)
	}
}

func TestController_IgnoresOtherSources(t *testing.T) {
	ctx := testCtx(t)
	frames := make(chan *gobafang.Frame, 1)
	c := NewController(ctx, nil, frames)
	defer c.Close()

	frames <- gobafang.NewFrame(gobafang.Display, gobafang.Broadcast, gobafang.OpWrite, 0x32, 0x01, make([]byte, 8))
	if c.Available() {
		t.Error("frame from another unit marked controller available")
	}
	if c.Realtime1() != nil {
		t.Error("frame from another unit was decoded")
	}
}

func TestController_Save(t *testing.T) {
	ctx := testCtx(t)
	mgr, b := newBus(t, answer(controllerReplies(), codec.Key{}))
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	s, f, err := c.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 0 || f != 0 {
		t.Fatalf("empty save got (%d, %d) want (0, 0)", s, f)
	}
	if b.count() != 0 {
		t.Fatal("empty save sent frames")
	}

	if _, _, err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	p1 := c.Parameter1()
	p1.CurrentLimit = 20
	c.SetParameter1(p1)
	c.SetSpeedParameters(&codec.SpeedParameters{SpeedLimit: 32, WheelDiameter: 0x1C, Circumference: 2200})

	s, f, err = c.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// manufacturer, parameter 1, parameter 2 and speed
	if s != 4 || f != 0 {
		t.Fatalf("got (%d, %d) want (4, 0)", s, f)
	}
}

func TestController_SaveEncodeError(t *testing.T) {
	ctx := testCtx(t)
	mgr, b := newBus(t, answer(nil, codec.Key{}))
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	c.SetSpeedParameters(&codec.SpeedParameters{SpeedLimit: 1000})
	s, f, err := c.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 0 || f != 1 {
		t.Fatalf("got (%d, %d) want (0, 1)", s, f)
	}
	if b.count() != 0 {
		t.Error("frames sent for an invalid value")
	}
}

func TestController_SaveBadGroup(t *testing.T) {
	ctx := testCtx(t)
	mgr, b := newBus(t, answer(nil, codec.Key{}))
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	c.SetManufacturer(strings.Repeat("X", 300))
	c.SetSpeedParameters(&codec.SpeedParameters{SpeedLimit: 25, WheelDiameter: 0x1C, Circumference: 2200})
	s, f, err := c.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 1 || f != 1 {
		t.Fatalf("got (%d, %d) want (1, 1)", s, f)
	}
	if n := b.count(); n != 1 {
		t.Errorf("sent %d frames want the speed write only", n)
	}
}

func TestController_AvailableAfterRead(t *testing.T) {
	ctx := testCtx(t)
	replies := map[codec.Key][]byte{codec.KeyHardwareVersion: []byte("HW1\x00")}
	mgr, _ := newBus(t, answer(replies, codec.Key{}))
	c := NewController(ctx, mgr, nil)
	defer c.Close()

	if c.Available() {
		t.Fatal("available before any frame")
	}
	s, f, err := c.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 1 || f != 7 {
		t.Fatalf("got (%d, %d) want (1, 7)", s, f)
	}
	if !c.Available() {
		t.Error("a read answered by the unit should mark it available")
	}
}

func TestController_Copies(t *testing.T) {
	ctx := testCtx(t)
	c := NewController(ctx, nil, nil)
	defer c.Close()

	p := &codec.SpeedParameters{SpeedLimit: 25}
	c.SetSpeedParameters(p)
	p.SpeedLimit = 45
	got := c.SpeedParameters()
	if got.SpeedLimit != 25 {
		t.Fatalf("setter kept caller pointer, got %v", got.SpeedLimit)
	}
	got.SpeedLimit = 45
	if c.SpeedParameters().SpeedLimit != 25 {
		t.Fatal("getter returned internal pointer")
	}
}

func TestController_Demo(t *testing.T) {
	ctx := testCtx(t)
	c := NewController(ctx, nil, nil, WithDemo(), withDelays(10*time.Millisecond, 10*time.Millisecond))
	defer c.Close()

	sub := c.Subscribe(32)
	defer sub.Close()
	c.LoadData()

	seen := map[string]bool{}
	var finish Event
	for finish.Type != EventReadFinish {
		select {
		case e := <-sub.C():
			seen[e.Name()] = true
			finish = e
		case <-time.After(time.Second):
			t.Fatal("no read-finish")
		}
	}
	if finish.Success != 8 || finish.Failure != 0 {
		t.Errorf("got %s want read-finish(8, 0)", finish)
	}
	for _, name := range []string{"data-hv", "data-sv", "data-mn", "data-sn", "data-m", "data-p1", "data-p2", "data-r0", "data-r1", "data-p3"} {
		if !seen[name] {
			t.Errorf("missing %s", name)
		}
	}
	if !c.Available() {
		t.Error("demo controller should be available")
	}

	s, f, err := c.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 4 || f != 0 {
		t.Errorf("got write-finish(%d, %d) want (4, 0)", s, f)
	}
}

func TestDisplay_LoadAndCommands(t *testing.T) {
	ctx := testCtx(t)
	d1 := must(codec.EncodeDisplayData1(&codec.DisplayData1{TotalMileage: 1234, SingleMileage: 12.3, MaxSpeed: 40}))
	d2 := must(codec.EncodeDisplayData2(&codec.DisplayData2{AverageSpeed: 18.5, ServiceMileage: 100}))
	replies := map[codec.Key][]byte{
		codec.KeyHardwareVersion:   []byte("DHW\x00"),
		codec.KeySoftwareVersion:   []byte("DSW\x00"),
		codec.KeyModelNumber:       []byte("C18\x00"),
		codec.KeySerialNumber:      []byte("DSN\x00"),
		codec.KeyCustomerNumber:    []byte("CN\x00"),
		codec.KeyBootloaderVersion: []byte("BL\x00"),
		codec.KeyDisplayErrors:     {0x21, 0x00, 0x25},
		codec.KeyDisplayData1:      d1,
		codec.KeyDisplayData2:      d2,
	}
	mgr, b := newBus(t, answer(replies, codec.Key{}))
	d := NewDisplay(ctx, mgr, nil)
	defer d.Close()

	s, f, err := d.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 9 || f != 0 {
		t.Fatalf("got (%d, %d) want (9, 0)", s, f)
	}
	if got := d.Errors(); len(got) != 2 || got[0] != 0x21 || got[1] != 0x25 {
		t.Errorf("errors %X", got)
	}
	if got := d.Data1(); got == nil || got.TotalMileage != 1234 {
		t.Errorf("data1 %+v", got)
	}

	if err := d.SetTime(ctx, 25, 0, 0); err == nil {
		t.Error("invalid time accepted")
	}
	before := b.count()
	if err := d.SetTime(ctx, 12, 30, 0); err != nil {
		t.Fatal(err)
	}
	if err := d.CleanServiceMileage(ctx); err != nil {
		t.Fatal(err)
	}
	if n := b.count() - before; n != 2 {
		t.Errorf("sent %d frames want 2", n)
	}

	d.SetTotalMileage(2000)
	s, f, err = d.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 1 || f != 0 {
		t.Fatalf("got (%d, %d) want (1, 0)", s, f)
	}
}

func TestSensor_SaveNothing(t *testing.T) {
	ctx := testCtx(t)
	mgr, b := newBus(t, nil)
	s := NewSensor(ctx, mgr, nil)
	defer s.Close()

	ok, failed, err := s.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok != 0 || failed != 0 {
		t.Fatalf("got (%d, %d) want (0, 0)", ok, failed)
	}
	if b.count() != 0 {
		t.Error("sensor save sent frames")
	}
}

func TestUartMotor_Load(t *testing.T) {
	ctx := testCtx(t)
	// manufacturer, model, hardware, firmware, voltage 48V, 25A
	info := append([]byte("HZXTSZ\x00\x0011"+"1013"), 0x02, 0x19)
	basic := must(uart.SerializeBasic(&uart.BasicParameters{LowBatteryProtection: 41, CurrentLimit: 25, SpeedmeterSignals: 1}))
	pedal := must(uart.SerializePedal(&uart.PedalParameters{PedalType: uart.PedalBBSensor32, TimeOfStop: 250}))
	throttle := must(uart.SerializeThrottle(&uart.ThrottleParameters{StartVoltage: 1.1, EndVoltage: 4.2}))
	blocks := map[uint8][]byte{
		uart.CodeInfo:     info,
		uart.CodeBasic:    basic,
		uart.CodePedal:    pedal,
		uart.CodeThrottle: throttle,
	}
	mgr, b := newBus(t, func(f *gobafang.Frame) *gobafang.Frame {
		if f.Command == uart.CmdWrite {
			return ackFrame(f, []byte{byte(len(f.Payload))})
		}
		return ackFrame(f, blocks[f.SubCommand])
	})
	u := NewUartMotor(ctx, mgr, nil)
	defer u.Close()

	s, f, err := u.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != 4 || f != 0 {
		t.Fatalf("got (%d, %d) want (4, 0)", s, f)
	}
	if got := u.Info(); got == nil || got.Voltage != "48V" || got.MaxCurrent != 25 {
		t.Errorf("info %+v", got)
	}
	if got := u.PedalParameters(); got == nil || got.TimeOfStop != 250 {
		t.Errorf("pedal %+v", got)
	}

	before := b.count()
	s, f, err = u.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// info is read only
	if s != 3 || f != 0 {
		t.Fatalf("got (%d, %d) want (3, 0)", s, f)
	}
	if n := b.count() - before; n != 3 {
		t.Errorf("sent %d frames want 3", n)
	}
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	h := newHub(gobafang.NopLogger{})
	sub := h.subscribe(1)
	sub.Close()
	sub.Close()
	h.emit(Event{Type: EventReadFinish})
	if _, ok := <-sub.C(); ok {
		t.Fatal("closed subscription received an event")
	}
}

func TestSubscription_FinishNotDropped(t *testing.T) {
	h := newHub(gobafang.NopLogger{})
	sub := h.subscribe(2)
	defer sub.Close()
	for i := 0; i < 5; i++ {
		h.emit(Event{Type: EventData, Field: codec.FieldRealtime1})
	}
	h.emit(Event{Type: EventReadFinish, Success: 3})

	var got []Event
	for len(got) < 2 {
		select {
		case e := <-sub.C():
			got = append(got, e)
		case <-time.After(time.Second):
			t.Fatalf("got %d events want 2", len(got))
		}
	}
	if got[0].Type != EventData {
		t.Errorf("first event %s", got[0])
	}
	if got[1].Type != EventReadFinish || got[1].Success != 3 {
		t.Errorf("last event %s want read-finish(3, 0)", got[1])
	}
}

func TestEvent_Name(t *testing.T) {
	tests := []struct {
		e    Event
		want string
	}{
		{Event{Type: EventData, Field: codec.FieldParameter1}, "data-p1"},
		{Event{Type: EventReadFinish}, "read-finish"},
		{Event{Type: EventWriteFinish}, "write-finish"},
	}
	for _, tt := range tests {
		if got := tt.e.Name(); got != tt.want {
			t.Errorf("got %q want %q", got, tt.want)
		}
	}
}
