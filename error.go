package gobafang

import (
	"errors"
	"fmt"
)

// Request outcomes
var (
	ErrTimeout            = errors.New("no valid response after all retries")
	ErrDeviceRejected     = errors.New("device rejected request")
	ErrDeviceDisconnected = errors.New("device disconnected")
	ErrDuplicateRequest   = errors.New("request already in flight")
	ErrEmptyResponse      = errors.New("only empty responses")
)

// Transport errors
var (
	ErrNilAdapter            = errors.New("adapter is nil")
	ErrDroppedFrame          = errors.New("adapter incoming channel full")
	ErrSendTimeout           = errors.New("timeout sending frame")
	ErrClientClosed          = errors.New("client closed")
	ErrResponseChannelClosed = errors.New("response channel closed")
)

// RequestError carries the key of the request that failed
type RequestError struct {
	Target     DeviceID
	Command    uint8
	SubCommand uint8
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s 0x%02X:0x%02X: %v", e.Target, e.Command, e.SubCommand, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type unrecoverableError struct {
	error
}

func (e unrecoverableError) Error() string {
	if e.error == nil {
		return "unrecoverable error"
	}
	return e.error.Error()
}

func (e unrecoverableError) Unwrap() error {
	return e.error
}

// Unrecoverable wraps an error in `unrecoverableError` struct
func Unrecoverable(err error) error {
	return unrecoverableError{err}
}

// IsRecoverable checks if error is an instance of `unrecoverableError`
func IsRecoverable(err error) bool {
	var u unrecoverableError
	return !errors.As(err, &u)
}
