// Package device drives the units on the bus. Every orchestrator owns the
// last known state of one unit, runs batch reads and writes through a
// request.Manager and reports progress as events.
//
// All state of an orchestrator lives on its own goroutine. Getters return
// copies and setters store copies, callers never share memory with it.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roffe/gobafang"
	"github.com/roffe/gobafang/pkg/codec"
	"github.com/roffe/gobafang/pkg/request"
)

var (
	ErrClosed      = errors.New("orchestrator closed")
	ErrNoTransport = errors.New("no transport")
)

const (
	demoReadDelay  = 1500 * time.Millisecond
	demoWriteDelay = 300 * time.Millisecond
)

// variant is what differs between unit types
type variant interface {
	role() gobafang.DeviceID
	reads() []request.Request
	// writes builds the write requests from the current state, groups that
	// fail to encode are reported in errs and left out
	writes() (reqs []request.Request, errs []error)
	decode(f *gobafang.Frame) (codec.Fragment, bool, error)
	// telemetry reports whether f is broadcast by the unit on its own
	telemetry(f *gobafang.Frame) bool
	apply(codec.Fragment)
	demoData() []codec.Fragment
}

type Opt func(*base)

// WithDemo bypasses the transport, canned data is loaded after a delay
func WithDemo() Opt {
	return func(b *base) {
		b.demo = true
	}
}

func WithLogger(l gobafang.Logger) Opt {
	return func(b *base) {
		b.log = l
	}
}

type base struct {
	v      variant
	mgr    *request.Manager
	log    gobafang.Logger
	hub    *hub
	msgs   chan func()
	done   chan struct{}
	cancel context.CancelFunc

	demo       bool
	readDelay  time.Duration
	writeDelay time.Duration

	reading   bool
	available bool
}

func newBase(ctx context.Context, v variant, mgr *request.Manager, frames <-chan *gobafang.Frame, opts []Opt) *base {
	ctx, cancel := context.WithCancel(ctx)
	b := &base{
		v:          v,
		mgr:        mgr,
		log:        gobafang.NopLogger{},
		msgs:       make(chan func(), 64),
		done:       make(chan struct{}),
		cancel:     cancel,
		readDelay:  demoReadDelay,
		writeDelay: demoWriteDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.hub = newHub(b.log)
	if b.demo {
		frames = nil
	}
	go b.run(ctx, frames)
	return b
}

func (b *base) run(ctx context.Context, frames <-chan *gobafang.Frame) {
	defer close(b.done)
	defer b.hub.close()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-b.msgs:
			fn()
		case f, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			b.onFrame(f)
		}
	}
}

func (b *base) post(fn func()) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.msgs <- fn:
		return true
	case <-b.done:
		return false
	}
}

// call runs fn on the orchestrator goroutine and waits for it
func (b *base) call(fn func()) bool {
	ran := make(chan struct{})
	if !b.post(func() { fn(); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-b.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Subscribe returns a subscription to the orchestrator events. A subscriber
// that falls buffer events behind loses data events but still gets every
// read-finish and write-finish.
func (b *base) Subscribe(buffer int) *Subscription {
	return b.hub.subscribe(buffer)
}

// Close stops the orchestrator and closes every subscription
func (b *base) Close() {
	b.cancel()
	<-b.done
}

// Available reports whether the unit has been heard from
func (b *base) Available() bool {
	var ok bool
	b.call(func() { ok = b.available })
	return ok
}

func (b *base) onFrame(f *gobafang.Frame) {
	if f.Source != b.v.role() {
		return
	}
	b.available = true
	if f.IsError() || !b.v.telemetry(f) {
		return
	}
	frag, ok, err := b.v.decode(f)
	if err != nil {
		b.log.Warn("telemetry: %v", err)
		return
	}
	if ok {
		b.update(frag)
	}
}

func (b *base) update(frag codec.Fragment) {
	b.v.apply(frag)
	b.hub.emit(Event{Type: EventData, Field: frag.Field, Value: frag.Value})
}

// LoadData reads every parameter of the unit and emits read-finish once all
// requests settled. It returns at once, calls made while a load is running
// are ignored.
func (b *base) LoadData() {
	b.post(func() {
		if b.reading {
			return
		}
		b.reading = true
		if b.demo {
			b.demoLoad()
			return
		}
		b.runBatch(EventReadFinish, b.v.reads(), 0, b.settleRead)
	})
}

// SaveData writes every parameter group that is set and emits write-finish
// once all requests settled
func (b *base) SaveData() {
	b.post(func() {
		reqs, errs := b.v.writes()
		for _, err := range errs {
			b.log.Error("encode: %v", err)
		}
		if b.demo {
			n, failed := len(reqs), len(errs)
			time.AfterFunc(b.writeDelay, func() {
				b.post(func() {
					b.hub.emit(Event{Type: EventWriteFinish, Success: n, Failure: failed})
				})
			})
			return
		}
		b.runBatch(EventWriteFinish, reqs, len(errs), b.settleWrite)
	})
}

// Load runs LoadData and waits for read-finish
func (b *base) Load(ctx context.Context) (success, failure int, err error) {
	return b.wait(ctx, EventReadFinish, b.LoadData)
}

// Save runs SaveData and waits for write-finish
func (b *base) Save(ctx context.Context) (success, failure int, err error) {
	return b.wait(ctx, EventWriteFinish, b.SaveData)
}

func (b *base) wait(ctx context.Context, kind EventType, trigger func()) (int, int, error) {
	sub := b.Subscribe(128)
	defer sub.Close()
	trigger()
	for {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case e, ok := <-sub.C():
			if !ok {
				return 0, 0, ErrClosed
			}
			if e.Type == kind {
				return e.Success, e.Failure, nil
			}
		}
	}
}

type batch struct {
	kind             EventType
	total            int
	success, failure int
}

func (bt *batch) settled() bool {
	return bt.success+bt.failure >= bt.total
}

// runBatch issues every request at once and counts the outcomes, a failed
// request never stops the others. failed counts requests that could not be
// built and are part of the batch result.
func (b *base) runBatch(kind EventType, reqs []request.Request, failed int, settle func(request.Request, request.Result) bool) {
	bt := &batch{kind: kind, total: len(reqs) + failed, failure: failed}
	for _, req := range reqs {
		if b.mgr == nil {
			bt.failure++
			continue
		}
		ch, err := b.mgr.Issue(req)
		if err != nil {
			b.log.Warn("issue: %v", err)
			bt.failure++
			continue
		}
		req := req
		go func() {
			r := <-ch
			b.post(func() {
				if settle(req, r) {
					bt.success++
				} else {
					bt.failure++
				}
				if bt.settled() {
					b.finish(bt)
				}
			})
		}()
	}
	if bt.settled() {
		b.finish(bt)
	}
}

func (b *base) finish(bt *batch) {
	if bt.kind == EventReadFinish {
		b.reading = false
	}
	b.hub.emit(Event{Type: bt.kind, Success: bt.success, Failure: bt.failure})
}

func (b *base) settleRead(req request.Request, r request.Result) bool {
	if r.Err != nil {
		b.log.Warn("read: %v", r.Err)
		return false
	}
	frag, ok, err := b.v.decode(r.Frame)
	if err != nil {
		b.log.Warn("read: %v", err)
		return false
	}
	if !ok {
		b.log.Warn("read %s 0x%02X:0x%02X: no decoder", req.Target, req.Command, req.SubCommand)
		return false
	}
	b.available = true
	b.update(frag)
	return true
}

func (b *base) settleWrite(_ request.Request, r request.Result) bool {
	if r.Err != nil {
		b.log.Warn("write: %v", r.Err)
		return false
	}
	return true
}

func (b *base) demoLoad() {
	n := len(b.v.reads())
	time.AfterFunc(b.readDelay, func() {
		b.post(func() {
			for _, frag := range b.v.demoData() {
				b.update(frag)
			}
			b.available = true
			b.reading = false
			b.hub.emit(Event{Type: EventReadFinish, Success: n})
		})
	})
}

// exec sends a single write and waits for the unit to acknowledge it
func (b *base) exec(ctx context.Context, w codec.Write) error {
	if b.demo {
		return nil
	}
	if b.mgr == nil {
		return ErrNoTransport
	}
	req, err := request.NewWrite(w.Target, w.Key.Command, w.Key.SubCommand, w.Payload)
	if err != nil {
		return err
	}
	_, err = b.mgr.Do(ctx, req)
	return err
}

func canRead(role gobafang.DeviceID) []request.Request {
	keys := codec.ReadCommands(role)
	out := make([]request.Request, 0, len(keys))
	for _, k := range keys {
		out = append(out, request.NewRead(role, k.Command, k.SubCommand))
	}
	return out
}

func canWrites(writes []codec.Write, errs []error) ([]request.Request, []error) {
	out := make([]request.Request, 0, len(writes))
	for _, w := range writes {
		req, err := request.NewWrite(w.Target, w.Key.Command, w.Key.SubCommand, w.Payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w, err))
			continue
		}
		out = append(out, req)
	}
	return out, errs
}

func canTelemetry(role gobafang.DeviceID, f *gobafang.Frame) bool {
	return codec.IsTelemetry(role, codec.Key{Command: f.Command, SubCommand: f.SubCommand})
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
