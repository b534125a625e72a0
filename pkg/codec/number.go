package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

func u16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func putU16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

func u24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putU24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// unscale converts a scaled value back to the integer sent on the wire and
// checks it fits max
func unscale(name string, v, scale float64, max uint32) (uint32, error) {
	raw := math.Round(v * scale)
	if raw < 0 || raw > float64(max) {
		return 0, fmt.Errorf("%w: %s %v", ErrOutOfRange, name, v)
	}
	return uint32(raw), nil
}

func scaled16(name string, v, scale float64) (uint16, error) {
	raw, err := unscale(name, v, scale, math.MaxUint16)
	return uint16(raw), err
}

func scaled8(name string, v, scale float64) (uint8, error) {
	raw, err := unscale(name, v, scale, math.MaxUint8)
	return uint8(raw), err
}

func stepped8(name string, v uint16, step uint16) (uint8, error) {
	if v%step != 0 || v/step > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %s %d not a multiple of %d up to %d", ErrOutOfRange, name, v, step, step*math.MaxUint8)
	}
	return uint8(v / step), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// blockWriter overlays fields onto a payload and keeps the first error
type blockWriter struct {
	buf []byte
	err error
}

func newBlockWriter(base []byte, size int) *blockWriter {
	buf := make([]byte, size)
	copy(buf, base)
	return &blockWriter{buf: buf}
}

func (w *blockWriter) u8(off int, v uint8) {
	w.buf[off] = v
}

func (w *blockWriter) u16(off int, v uint16) {
	putU16(w.buf[off:], v)
}

func (w *blockWriter) flag(off int, v bool) {
	w.buf[off] = boolByte(v)
}

func (w *blockWriter) scaled8(off int, name string, v, scale float64) {
	if w.err != nil {
		return
	}
	raw, err := scaled8(name, v, scale)
	if err != nil {
		w.err = err
		return
	}
	w.buf[off] = raw
}

func (w *blockWriter) scaled16(off int, name string, v, scale float64) {
	if w.err != nil {
		return
	}
	raw, err := scaled16(name, v, scale)
	if err != nil {
		w.err = err
		return
	}
	putU16(w.buf[off:], raw)
}

func (w *blockWriter) stepped8(off int, name string, v, step uint16) {
	if w.err != nil {
		return
	}
	raw, err := stepped8(name, v, step)
	if err != nil {
		w.err = err
		return
	}
	w.buf[off] = raw
}

func (w *blockWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}
