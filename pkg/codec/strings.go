package codec

import (
	"bytes"
	"fmt"

	"github.com/roffe/gobafang"
)

// MaxStringLength leaves room for the terminating NUL in a long write
const MaxStringLength = gobafang.MaxLongPayload - 1

func decodeString(p []byte) (interface{}, error) {
	return DecodeString(p), nil
}

// DecodeString reads character codes up to the first NUL, one rune per byte
func DecodeString(p []byte) string {
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	r := make([]rune, len(p))
	for i, c := range p {
		r[i] = rune(c)
	}
	return string(r)
}

// EncodeString renders s NUL terminated with one byte per rune. Only runes
// up to U+00FF can be written.
func EncodeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)+1)
	for _, r := range s {
		switch {
		case r == 0:
			return nil, fmt.Errorf("%w: string contains NUL", ErrOutOfRange)
		case r > 0xFF:
			return nil, fmt.Errorf("%w: character %q", ErrOutOfRange, r)
		}
		out = append(out, byte(r))
	}
	if len(out) > MaxStringLength {
		return nil, fmt.Errorf("%w: string of %d characters", ErrOutOfRange, len(out))
	}
	return append(out, 0), nil
}
