package v4l2

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrEnumerationExhausted reports that an enumeration request ran past the
// last valid index. Drivers signal this with EINVAL.
var ErrEnumerationExhausted = errors.New("v4l2: enumeration exhausted")

// DeviceIOError is returned when the driver rejects a control request.
type DeviceIOError struct {
	Op      string
	Request Opcode
	Errno   syscall.Errno
}

func (e *DeviceIOError) Error() string {
	return fmt.Sprintf("%s (0x%08X): %v", e.Op, uint32(e.Request), e.Errno)
}

func (e *DeviceIOError) Unwrap() error {
	return e.Errno
}
