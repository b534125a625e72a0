package gobafang

import (
	"context"
	"fmt"
	"time"

	"github.com/roffe/gobafang/pkg/uart"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

const defaultBBSGap = 500 * time.Millisecond

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "BBS",
		Description:        "Bafang UART programming cable (BBS01/BBS02/BBSHD)",
		RequiresSerialPort: true,
		Family:             FamilyUART,
		New:                NewBBS,
	}); err != nil {
		panic(err)
	}
}

// BBS talks to the UART motors through the programming cable.
//
// Outbound frames carry the UART command (uart.CmdRead or uart.CmdWrite) in
// Command and the block code in SubCommand. Replies are delivered as NormalAck
// frames from the drive unit with the same Command and SubCommand. A write
// reply carries the acknowledged length as its single payload byte.
//
// The line is half-duplex, only one request is on the wire at a time. The send
// token is released by the reply or after cfg.Gap.
type BBS struct {
	*BaseAdapter
	port    serial.Port
	dec     uart.Decoder
	replied chan struct{}
	closed  bool
}

func NewBBS(cfg *AdapterConfig) (Adapter, error) {
	if cfg.PortBaudrate == 0 {
		cfg.PortBaudrate = 1200
	}
	if cfg.Gap == 0 {
		cfg.Gap = defaultBBSGap
	}
	return &BBS{
		BaseAdapter: NewBaseAdapter("BBS", cfg),
		replied:     make(chan struct{}, 1),
	}, nil
}

func (a *BBS) Open(ctx context.Context) error {
	p, err := openPort(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.port = p
	if err := a.port.SetReadTimeout(10 * time.Millisecond); err != nil {
		a.port.Close()
		return err
	}
	a.port.ResetOutputBuffer()
	a.port.ResetInputBuffer()

	errg, gctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return a.sendManager(gctx)
	})
	errg.Go(func() error {
		return a.recvManager(gctx)
	})
	go func() {
		if err := errg.Wait(); err != nil && !a.closed {
			a.Fatal(err)
		}
	}()
	return nil
}

func (a *BBS) Close() error {
	a.closed = true
	a.BaseAdapter.Close()
	if a.port == nil {
		return nil
	}
	return a.port.Close()
}

func (a *BBS) sendManager(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.closeChan:
			return nil
		case frame := <-a.sendChan:
			out, err := encodeBBS(frame)
			if err != nil {
				a.Error(err)
				continue
			}
			// drop a stale token from a reply that arrived after its gap
			select {
			case <-a.replied:
			default:
			}
			a.dec.Expect(frame.Command, frame.SubCommand)
			if a.cfg.Debug {
				a.cfg.Logger.Debug(">> % X", out)
			}
			if _, err := a.port.Write(out); err != nil {
				a.dec.Reset()
				a.Error(fmt.Errorf("failed to write to com port: %w", err))
				continue
			}
			a.sent()
			select {
			case <-ctx.Done():
				return nil
			case <-a.closeChan:
				return nil
			case <-a.replied:
			case <-time.After(a.cfg.Gap):
				a.dec.Reset()
			}
		}
	}
}

func (a *BBS) recvManager(ctx context.Context) error {
	readBuf := make([]byte, 64)
	for ctx.Err() == nil {
		select {
		case <-a.closeChan:
			return nil
		default:
		}
		n, err := a.port.Read(readBuf)
		if err != nil {
			if a.closed {
				return nil
			}
			return fmt.Errorf("failed to read com port: %w", err)
		}
		if n == 0 {
			continue
		}
		reply, err := a.dec.Feed(readBuf[:n])
		if err != nil {
			a.Warn(err.Error())
			a.release()
			continue
		}
		if reply == nil {
			continue
		}
		a.deliver(NewFrame(DriveUnit, Besst, OpNormalAck, reply.Command, reply.Code, reply.Data))
		a.release()
	}
	return nil
}

func (a *BBS) release() {
	select {
	case a.replied <- struct{}{}:
	default:
	}
}

func encodeBBS(frame *Frame) ([]byte, error) {
	switch frame.Command {
	case uart.CmdRead:
		return uart.ReadRequest(frame.SubCommand)
	case uart.CmdWrite:
		return uart.WriteRequest(frame.SubCommand, frame.Payload)
	default:
		return nil, fmt.Errorf("unknown UART command 0x%02X", frame.Command)
	}
}
