//go:build linux

package v4l2

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Controller issues control requests against an open device handle.
// Device uses a file descriptor backed implementation; tests substitute a
// simulated driver.
type Controller interface {
	Ioctl(req Opcode, arg unsafe.Pointer) error
}

type fdController int

func (c fdController) Ioctl(req Opcode, arg unsafe.Pointer) error {
	return ioctl(int(c), req, arg)
}

func ioctl(fd int, req Opcode, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func open(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}

func closeFD(fd int) error {
	return unix.Close(fd)
}
