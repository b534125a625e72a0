// Package request correlates requests sent to Bafang units with their
// responses and owns the retry and timeout policy.
package request

import (
	"context"
	"time"

	"github.com/roffe/gobafang"
)

const (
	DefaultRetries = 3
	DefaultTimeout = time.Second

	// UseDefaultRetries in Request.MaxRetries picks the manager default
	UseDefaultRetries = -1
)

// Sender puts frames on the bus, *gobafang.Client satisfies it
type Sender interface {
	Send(*gobafang.Frame) error
}

// Request is one parameter read or write. Frames are sent as is and sent
// again on every retry.
type Request struct {
	Target     gobafang.DeviceID
	Command    uint8
	SubCommand uint8
	Frames     []*gobafang.Frame
	MaxRetries int
	Timeout    time.Duration
}

// NewRead builds a read request with the manager defaults
func NewRead(target gobafang.DeviceID, command, sub uint8) Request {
	return Request{
		Target:     target,
		Command:    command,
		SubCommand: sub,
		Frames:     []*gobafang.Frame{gobafang.ReadFrame(target, command, sub)},
		MaxRetries: UseDefaultRetries,
	}
}

// NewWrite builds a write request with the manager defaults, payloads longer
// than a frame become a long write
func NewWrite(target gobafang.DeviceID, command, sub uint8, payload []byte) (Request, error) {
	frames, err := gobafang.WriteFrames(target, command, sub, payload)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Target:     target,
		Command:    command,
		SubCommand: sub,
		Frames:     frames,
		MaxRetries: UseDefaultRetries,
	}, nil
}

// Result is the outcome of a request, exactly one is delivered per request
type Result struct {
	Frame *gobafang.Frame
	Err   error
}

type key struct {
	target  gobafang.DeviceID
	command uint8
	sub     uint8
}

type pending struct {
	key     key
	frames  []*gobafang.Frame
	read    bool
	reread  bool
	retries int
	timeout time.Duration
	timer   *time.Timer
	gen     uint64
	result  chan Result
}

type Opt func(*Manager)

func WithRetries(n int) Opt {
	return func(m *Manager) {
		m.retries = n
	}
}

func WithTimeout(d time.Duration) Opt {
	return func(m *Manager) {
		m.timeout = d
	}
}

func WithLogger(l gobafang.Logger) Opt {
	return func(m *Manager) {
		m.log = l
	}
}

// Manager keeps one pending request per (target, command, sub command). All
// state is owned by a single goroutine, every public method posts a message
// to it.
type Manager struct {
	sender  Sender
	log     gobafang.Logger
	retries int
	timeout time.Duration

	msgs    chan func()
	done    chan struct{}
	pending map[key]*pending
	gen     uint64
}

// New starts a manager sending through sender. It stops and fails every
// pending request with ErrDeviceDisconnected when ctx is done.
func New(ctx context.Context, sender Sender, opts ...Opt) *Manager {
	m := &Manager{
		sender:  sender,
		log:     gobafang.NopLogger{},
		retries: DefaultRetries,
		timeout: DefaultTimeout,
		msgs:    make(chan func(), 64),
		done:    make(chan struct{}),
		pending: make(map[key]*pending),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.run(ctx)
	return m
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			m.disconnected()
			return
		case fn := <-m.msgs:
			fn()
		}
	}
}

// post hands fn to the actor, false once the manager stopped
func (m *Manager) post(fn func()) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.msgs <- fn:
		return true
	case <-m.done:
		return false
	}
}

// call runs fn on the actor and waits for it to return
func (m *Manager) call(fn func()) bool {
	ran := make(chan struct{})
	if !m.post(func() { fn(); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-m.done:
		// done is closed after the last message ran
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Issue registers req and transmits it. The returned channel receives exactly
// one Result. A request for a key that is already pending fails right away
// with ErrDuplicateRequest and leaves the pending one untouched.
func (m *Manager) Issue(req Request) (<-chan Result, error) {
	result := make(chan Result, 1)
	var err error
	if !m.call(func() { err = m.register(req, result) }) {
		return nil, &gobafang.RequestError{Target: req.Target, Command: req.Command, SubCommand: req.SubCommand, Err: gobafang.ErrDeviceDisconnected}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Do issues req and waits for its result. Giving up on ctx does not cancel
// the request.
func (m *Manager) Do(ctx context.Context, req Request) (*gobafang.Frame, error) {
	result, err := m.Issue(req)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-result:
		return r.Frame, r.Err
	}
}

// OnFrame offers an inbound frame for correlation, unmatched frames are ignored
func (m *Manager) OnFrame(f *gobafang.Frame) {
	m.post(func() { m.onFrame(f) })
}

// Disconnected fails every pending request with ErrDeviceDisconnected
func (m *Manager) Disconnected() {
	m.post(m.disconnected)
}

// Pending returns the number of requests awaiting a response
func (m *Manager) Pending() int {
	var n int
	m.call(func() { n = len(m.pending) })
	return n
}

// Pump feeds frames into the manager until ch is closed, which is taken as
// the transport going away
func (m *Manager) Pump(ch <-chan *gobafang.Frame) {
	go func() {
		for f := range ch {
			m.OnFrame(f)
		}
		m.Disconnected()
	}()
}

func (m *Manager) register(req Request, result chan Result) error {
	k := key{req.Target, req.Command, req.SubCommand}
	if _, found := m.pending[k]; found {
		return &gobafang.RequestError{Target: req.Target, Command: req.Command, SubCommand: req.SubCommand, Err: gobafang.ErrDuplicateRequest}
	}
	p := &pending{
		key:     k,
		frames:  req.Frames,
		retries: req.MaxRetries,
		timeout: req.Timeout,
		result:  result,
	}
	if p.retries < 0 {
		p.retries = m.retries
	}
	if p.timeout <= 0 {
		p.timeout = m.timeout
	}
	if len(p.frames) > 0 {
		p.read = p.frames[0].Op == gobafang.OpRead
	}
	m.pending[k] = p
	m.transmit(p)
	m.arm(p)
	return nil
}

func (m *Manager) transmit(p *pending) {
	for _, f := range p.frames {
		if err := m.sender.Send(f); err != nil {
			// the timeout takes care of lost frames
			m.log.Warn("send %s 0x%02X:0x%02X: %v", p.key.target, p.key.command, p.key.sub, err)
			return
		}
	}
}

// arm (re)starts the request timer. Generations are unique per manager so
// expiries of older timers, even those of an earlier request for the same
// key, are dropped.
func (m *Manager) arm(p *pending) {
	if p.timer != nil {
		p.timer.Stop()
	}
	m.gen++
	p.gen = m.gen
	gen := p.gen
	k := p.key
	p.timer = time.AfterFunc(p.timeout, func() {
		m.post(func() { m.expire(k, gen) })
	})
}

func (m *Manager) expire(k key, gen uint64) {
	p, found := m.pending[k]
	if !found || p.gen != gen {
		return
	}
	if p.retries > 0 {
		p.retries--
		p.reread = false
		m.log.Debug("retry %s 0x%02X:0x%02X, %d left", k.target, k.command, k.sub, p.retries)
		m.transmit(p)
		m.arm(p)
		return
	}
	m.finish(p, nil, gobafang.ErrTimeout)
}

func (m *Manager) onFrame(f *gobafang.Frame) {
	if !f.IsResponse() {
		return
	}
	p, found := m.pending[key{f.Source, f.Command, f.SubCommand}]
	if !found {
		return
	}
	p.timer.Stop()
	switch {
	case f.IsError():
		m.finish(p, nil, gobafang.ErrDeviceRejected)
	case p.read && len(f.Payload) == 0:
		// value not ready yet, one re-read per attempt is free, further
		// empty responses use up retries
		switch {
		case !p.reread:
			p.reread = true
		case p.retries > 0:
			p.retries--
		default:
			m.finish(p, nil, gobafang.ErrEmptyResponse)
			return
		}
		m.log.Debug("empty response %s 0x%02X:0x%02X, reading again", f.Source, f.Command, f.SubCommand)
		m.transmit(p)
		m.arm(p)
	default:
		m.finish(p, f, nil)
	}
}

func (m *Manager) disconnected() {
	for _, p := range m.pending {
		m.finish(p, nil, gobafang.ErrDeviceDisconnected)
	}
}

func (m *Manager) finish(p *pending, f *gobafang.Frame, err error) {
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(m.pending, p.key)
	if err != nil {
		err = &gobafang.RequestError{Target: p.key.target, Command: p.key.command, SubCommand: p.key.sub, Err: err}
	}
	p.result <- Result{Frame: f, Err: err}
}
