package gobafang

import (
	"context"
	"time"
)

const defaultSendTimeout = 2 * time.Second

// Client owns one adapter. Inbound frames are reassembled and faned out to
// subscribers, outbound frames are queued on the adapter.
type Client struct {
	adapter     Adapter
	fh          *handler
	log         Logger
	sendTimeout time.Duration
}

type ClientOpt func(*Client)

func WithLogger(l Logger) ClientOpt {
	return func(c *Client) {
		c.log = l
	}
}

func WithSendTimeout(d time.Duration) ClientOpt {
	return func(c *Client) {
		c.sendTimeout = d
	}
}

// New opens the adapter and starts the fan-out goroutine
func New(ctx context.Context, adapter Adapter, opts ...ClientOpt) (*Client, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	c := &Client{
		adapter:     adapter,
		log:         NopLogger{},
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := adapter.Open(ctx); err != nil {
		return nil, err
	}
	c.fh = newHandler(adapter, c.log)
	go c.fh.run(ctx)
	return c, nil
}

func (c *Client) Adapter() Adapter {
	return c.adapter
}

// Close stops the fan-out and closes the adapter
func (c *Client) Close() error {
	c.fh.Close()
	return c.adapter.Close()
}

// Send queues a frame on the adapter
func (c *Client) Send(frame *Frame) error {
	c.log.DebugFrame(">>", frame)
	select {
	case c.adapter.Send() <- frame:
		return nil
	case <-c.fh.close:
		return ErrClientClosed
	case <-time.After(c.sendTimeout):
		return ErrSendTimeout
	}
}

// Subscribe returns a Subscriber receiving frames from the given sources, or
// from everyone when none are given. It is closed when ctx is done.
func (c *Client) Subscribe(ctx context.Context, sources ...DeviceID) *Subscriber {
	sub := &Subscriber{
		h:            c.fh,
		sources:      make(map[DeviceID]struct{}, len(sources)),
		responseChan: make(chan *Frame, 128),
	}
	for _, src := range sources {
		sub.sources[src] = struct{}{}
	}
	c.fh.registerSubscriber(sub)
	sub.mu.Lock()
	sub.stop = context.AfterFunc(ctx, sub.Close)
	sub.mu.Unlock()
	return sub
}

// Event returns the adapter event channel
func (c *Client) Event() <-chan Event {
	return c.adapter.Event()
}
