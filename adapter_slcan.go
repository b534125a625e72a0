package gobafang

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

type SLCan struct {
	*BaseAdapter
	port   serial.Port
	closed bool
}

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "SLCAN",
		Description:        "Lawicel/Canable ASCII adapter, 29-bit frames",
		RequiresSerialPort: true,
		Family:             FamilyCAN,
		New:                NewSLCan,
	}); err != nil {
		panic(err)
	}
}

func NewSLCan(cfg *AdapterConfig) (Adapter, error) {
	if cfg.PortBaudrate == 0 {
		cfg.PortBaudrate = 115200
	}
	if cfg.CANRate == 0 {
		cfg.CANRate = 250
	}
	if _, err := slcanRate(cfg.CANRate); err != nil {
		return nil, err
	}
	return &SLCan{
		BaseAdapter: NewBaseAdapter("SLCAN", cfg),
	}, nil
}

func slcanRate(kbit float64) (string, error) {
	switch kbit {
	case 10:
		return "S0", nil
	case 20:
		return "S1", nil
	case 50:
		return "S2", nil
	case 100:
		return "S3", nil
	case 125:
		return "S4", nil
	case 250:
		return "S5", nil
	case 500:
		return "S6", nil
	case 800:
		return "S7", nil
	case 1000:
		return "S8", nil
	default:
		return "", fmt.Errorf("unknown rate: %f", kbit)
	}
}

func (sl *SLCan) Open(ctx context.Context) error {
	p, err := openPort(ctx, sl.cfg)
	if err != nil {
		return err
	}
	sl.port = p
	if err := sl.port.SetReadTimeout(3 * time.Millisecond); err != nil {
		sl.port.Close()
		return err
	}
	sl.port.ResetOutputBuffer()
	sl.port.ResetInputBuffer()

	rate, _ := slcanRate(sl.cfg.CANRate)
	for _, cmd := range []string{"\r\r\r", "C\r", rate + "\r", "O\r"} {
		if _, err := sl.port.Write([]byte(cmd)); err != nil {
			sl.port.Close()
			return fmt.Errorf("failed to init adapter: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	errg, gctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return sl.sendManager(gctx)
	})
	errg.Go(func() error {
		return sl.recvManager(gctx)
	})
	go func() {
		if err := errg.Wait(); err != nil && !sl.closed {
			sl.Fatal(err)
		}
	}()
	return nil
}

func (sl *SLCan) Close() error {
	sl.closed = true
	sl.BaseAdapter.Close()
	time.Sleep(10 * time.Millisecond)
	sl.port.Write([]byte("C\r"))
	time.Sleep(10 * time.Millisecond)
	return sl.port.Close()
}

func (sl *SLCan) recvManager(ctx context.Context) error {
	buf := make([]byte, 0, 64)
	readBuf := make([]byte, 32)
	for ctx.Err() == nil {
		select {
		case <-sl.closeChan:
			return nil
		default:
		}
		n, err := sl.port.Read(readBuf)
		if err != nil {
			if sl.closed {
				return nil
			}
			return fmt.Errorf("failed to read com port: %w", err)
		}
		if n == 0 {
			continue
		}
		buf = sl.parse(buf, readBuf[:n])
	}
	return nil
}

const slcanStatusInterval = 5 * time.Second

func (sl *SLCan) sendManager(ctx context.Context) error {
	outBuf := make([]byte, 0, 32)
	status := time.NewTicker(slcanStatusInterval)
	defer status.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sl.closeChan:
			return nil
		case <-status.C:
			if _, err := sl.port.Write([]byte("F\r")); err != nil {
				sl.Error(fmt.Errorf("failed to write to com port: %w", err))
			}
		case frame := <-sl.sendChan:
			outBuf = encodeSLCan(outBuf[:0], frame)
			if sl.cfg.Debug {
				sl.cfg.Logger.Debug(">> %s", outBuf[:len(outBuf)-1])
			}
			if _, err := sl.port.Write(outBuf); err != nil {
				sl.Error(fmt.Errorf("failed to write to com port: %w", err))
				continue
			}
			sl.sent()
		}
	}
}

// encodeSLCan renders an extended frame as 'T' + 8 hex id + dlc + data + CR
func encodeSLCan(buf []byte, frame *Frame) []byte {
	id := frame.Identifier()
	buf = append(buf, 'T')
	for shift := 28; shift >= 0; shift -= 4 {
		buf = append(buf, nybbleToHex(byte(id>>shift)&0xF))
	}
	dlc := min(len(frame.Payload), MaxPayload)
	buf = append(buf, nybbleToHex(byte(dlc)))
	for i := 0; i < dlc; i++ {
		buf = append(buf, nybbleToHex(frame.Payload[i]>>4), nybbleToHex(frame.Payload[i]&0xF))
	}
	return append(buf, '\r')
}

// helper converts a 0..15 value to its ASCII hex nibble
func nybbleToHex(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}

// parse processes the read data and returns any remaining partial data.
func (sl *SLCan) parse(buf, readBuf []byte) []byte {
	for _, b := range readBuf {
		switch b {
		case '\r':
			if len(buf) == 0 {
				continue
			}
			switch buf[0] {
			case 'T':
				f, err := decodeSLCan(buf)
				if err != nil {
					sl.Warn(fmt.Sprintf("%v: %q", err, buf))
					break
				}
				sl.deliver(f)
			case 't':
				// 11-bit frames are not used by Bafang units
			case 'F':
				if err := checkSLCanStatus(buf); err != nil {
					sl.Warn(fmt.Sprintf("adapter status: %v", err))
				}
			case 'z', 'Z':
			default:
				sl.Debug("COM>> " + string(buf))
			}
			buf = buf[:0]
		case 0x07:
			sl.Warn("adapter rejected command")
			buf = buf[:0]
		default:
			buf = append(buf, b)
		}
	}
	return buf
}

func decodeSLCan(buff []byte) (*Frame, error) {
	if len(buff) < 10 {
		return nil, fmt.Errorf("short frame")
	}
	id, err := strconv.ParseUint(string(buff[1:9]), 16, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to decode identifier: %v", err)
	}
	dataLen, err := strconv.ParseUint(string(buff[9]), 16, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data length: %v", err)
	}
	if dataLen > MaxPayload || len(buff) < 10+int(dataLen)*2 {
		return nil, fmt.Errorf("invalid data length: %d", dataLen)
	}
	data, err := hex.DecodeString(string(buff[10 : 10+dataLen*2]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame body: %v", err)
	}
	return FrameFromCAN(uint32(id), data)
}
