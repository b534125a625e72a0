package gobafang

import (
	"fmt"
)

// MaxLongPayload is the largest value a long write can announce in its start frame
const MaxLongPayload = 0xFF

// ReadFrame builds a read request for command/sub on target
func ReadFrame(target DeviceID, command, sub uint8) *Frame {
	return NewFrame(Besst, target, OpRead, command, sub, nil)
}

// WriteFrames builds the frame sequence writing payload to command/sub on target.
//
// Payloads up to 8 bytes go out as a single write frame. Longer payloads start
// with a LongStart frame announcing the total length, followed by 8 byte chunks
// where the sub command carries the chunk index and the last chunk is sent as
// LongEnd.
func WriteFrames(target DeviceID, command, sub uint8, payload []byte) ([]*Frame, error) {
	if len(payload) <= MaxPayload {
		return []*Frame{NewFrame(Besst, target, OpWrite, command, sub, payload)}, nil
	}
	if len(payload) > MaxLongPayload {
		return nil, fmt.Errorf("payload of %d bytes exceeds long write limit", len(payload))
	}
	frames := make([]*Frame, 0, 2+len(payload)/MaxPayload)
	frames = append(frames, NewFrame(Besst, target, OpLongStart, command, sub, []byte{byte(len(payload))}))
	var index uint8
	for pos := 0; pos < len(payload); pos += MaxPayload {
		end := min(pos+MaxPayload, len(payload))
		op := OpLongData
		if end == len(payload) {
			op = OpLongEnd
		}
		frames = append(frames, NewFrame(Besst, target, op, command, index, payload[pos:end]))
		index++
	}
	return frames, nil
}

type reassemblyKey struct {
	source  DeviceID
	command uint8
}

type partial struct {
	target DeviceID
	sub    uint8
	length int
	next   uint8
	data   []byte
}

// Reassembler joins inbound long responses into one frame. It is not safe for
// concurrent use, the client feeds it from its single fan-out goroutine.
type Reassembler struct {
	pending map[reassemblyKey]*partial
}

func NewReassembler() *Reassembler {
	return &Reassembler{
		pending: make(map[reassemblyKey]*partial),
	}
}

// Feed returns the frame to hand on, or nil while a long response is still
// incomplete. Completed long responses are delivered as a NormalAck frame
// carrying the command and sub command announced in the start frame.
func (r *Reassembler) Feed(f *Frame) *Frame {
	key := reassemblyKey{f.Source, f.Command}
	switch f.Op {
	case OpLongStart:
		if len(f.Payload) < 1 {
			return f
		}
		length := int(f.Payload[0])
		if length == 0 {
			delete(r.pending, key)
			return NewFrame(f.Source, f.Target, OpNormalAck, f.Command, f.SubCommand, nil)
		}
		r.pending[key] = &partial{
			target: f.Target,
			sub:    f.SubCommand,
			length: length,
			data:   make([]byte, 0, length),
		}
		return nil
	case OpLongData, OpLongEnd:
		p, ok := r.pending[key]
		if !ok {
			return f
		}
		if f.SubCommand != p.next {
			// out of sequence, the requester times out and asks again
			delete(r.pending, key)
			return nil
		}
		p.data = append(p.data, f.Payload...)
		p.next++
		if f.Op == OpLongEnd || len(p.data) >= p.length {
			delete(r.pending, key)
			data := p.data
			if len(data) > p.length {
				data = data[:p.length]
			}
			return NewFrame(f.Source, p.target, OpNormalAck, f.Command, p.sub, data)
		}
		return nil
	case OpLongError:
		if p, ok := r.pending[key]; ok {
			delete(r.pending, key)
			return NewFrame(f.Source, p.target, OpLongError, f.Command, p.sub, f.Payload)
		}
		return f
	default:
		return f
	}
}

// Reset drops every partially received response
func (r *Reassembler) Reset() {
	r.pending = make(map[reassemblyKey]*partial)
}
