// Package uart implements the serial protocol of the Bafang BBS motor family.
//
// Requests:
//
//	read   [0x11][CODE]
//	write  [0x16][CODE][LEN][DATA...][CHECKSUM]
//
// Replies:
//
//	read   [CODE][LEN][DATA...][CHECKSUM]
//	write  [CODE][LEN]
//
// The checksum is the low byte of the sum of every preceding byte, starting at
// the command byte for requests and at CODE for replies.
package uart

import (
	"errors"
	"fmt"
	"sync"
)

const (
	CmdRead  = 0x11
	CmdWrite = 0x16
)

const (
	CodeInfo     = 0x51
	CodeBasic    = 0x52
	CodePedal    = 0x53
	CodeThrottle = 0x54
)

// Payload sizes of every block, also the LEN byte of reads and writes
const (
	InfoSize     = 16
	BasicSize    = 24
	PedalSize    = 11
	ThrottleSize = 6
)

var (
	ErrChecksum    = errors.New("checksum mismatch")
	ErrUnknownCode = errors.New("unknown block code")
)

// BlockSize returns the payload size for a block code
func BlockSize(code byte) (int, bool) {
	switch code {
	case CodeInfo:
		return InfoSize, true
	case CodeBasic:
		return BasicSize, true
	case CodePedal:
		return PedalSize, true
	case CodeThrottle:
		return ThrottleSize, true
	}
	return 0, false
}

// Checksum is the low byte of the sum of data
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ReadRequest builds the bytes asking the motor for a block
func ReadRequest(code byte) ([]byte, error) {
	if _, ok := BlockSize(code); !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCode, code)
	}
	if code == CodeInfo {
		// the info request carries a fixed tail the controller expects
		return []byte{CmdRead, CodeInfo, 0x04, 0xB0, 0x05}, nil
	}
	return []byte{CmdRead, code}, nil
}

// WriteRequest builds the bytes writing data to a block
func WriteRequest(code byte, data []byte) ([]byte, error) {
	size, ok := BlockSize(code)
	if !ok || code == CodeInfo {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCode, code)
	}
	if len(data) != size {
		return nil, fmt.Errorf("block 0x%02X needs %d bytes, got %d", code, size, len(data))
	}
	out := make([]byte, 0, len(data)+4)
	out = append(out, CmdWrite, code, byte(len(data)))
	out = append(out, data...)
	return append(out, Checksum(out)), nil
}

// Reply is one decoded answer from the motor
type Reply struct {
	Command byte
	Code    byte
	Data    []byte
}

// Decoder cuts the reply stream into Replies. The protocol is half-duplex and
// replies are not self-describing, so the caller tells the decoder which
// request is outstanding with Expect before sending it.
type Decoder struct {
	mu      sync.Mutex
	buf     []byte
	active  bool
	command byte
	code    byte
}

// Expect arms the decoder for the reply to command/code and drops any
// buffered bytes
func (d *Decoder) Expect(command, code byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = d.buf[:0]
	d.active = true
	d.command = command
	d.code = code
}

// Reset drops buffered bytes and disarms the decoder
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = d.buf[:0]
	d.active = false
}

// Feed consumes received bytes. It returns a reply once the expected answer is
// complete. Bytes received while nothing is expected are discarded.
func (d *Decoder) Feed(data []byte) (*Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return nil, nil
	}
	d.buf = append(d.buf, data...)
	// resync on the block code
	for len(d.buf) > 0 && d.buf[0] != d.code {
		d.buf = d.buf[1:]
	}
	if len(d.buf) < 2 {
		return nil, nil
	}
	if d.command == CmdWrite {
		r := &Reply{Command: CmdWrite, Code: d.code, Data: []byte{d.buf[1]}}
		d.active = false
		d.buf = d.buf[:0]
		return r, nil
	}
	total := int(d.buf[1]) + 3
	if len(d.buf) < total {
		return nil, nil
	}
	frame := d.buf[:total]
	d.active = false
	d.buf = d.buf[:0]
	if Checksum(frame[:total-1]) != frame[total-1] {
		return nil, fmt.Errorf("%w on block 0x%02X", ErrChecksum, frame[0])
	}
	out := make([]byte, total-3)
	copy(out, frame[2:total-1])
	return &Reply{Command: CmdRead, Code: frame[0], Data: out}, nil
}

// EncodeReply renders a read reply the way the motor sends it
func EncodeReply(code byte, data []byte) []byte {
	out := make([]byte, 0, len(data)+3)
	out = append(out, code, byte(len(data)))
	out = append(out, data...)
	return append(out, Checksum(out))
}
