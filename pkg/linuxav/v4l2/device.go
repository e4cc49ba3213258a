//go:build linux

package v4l2

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"unsafe"
)

// Device is an open V4L2 capture node. It is not safe for concurrent use.
type Device struct {
	path string
	fd   int
	ctl  Controller

	closeOnce sync.Once
	closeErr  error
}

// DevicePath returns the node path for a numeric device index.
func DevicePath(index int) string {
	return "/dev/video" + strconv.Itoa(index)
}

// Open opens the device node at path for control and capture.
func Open(path string) (*Device, error) {
	fd, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}
	return &Device{path: path, fd: fd, ctl: fdController(fd)}, nil
}

// NewDevice wraps an arbitrary Controller. Close is a no-op for such devices.
func NewDevice(path string, ctl Controller) *Device {
	return &Device{path: path, fd: -1, ctl: ctl}
}

// Path returns the device node path.
func (d *Device) Path() string {
	return d.path
}

// Close releases the file descriptor. Subsequent calls return the first result.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		if d.fd >= 0 {
			d.closeErr = closeFD(d.fd)
			d.fd = -1
		}
	})
	return d.closeErr
}

// Control issues req and wraps a driver rejection as *DeviceIOError.
func (d *Device) Control(op string, req Opcode, arg unsafe.Pointer) error {
	err := d.ctl.Ioctl(req, arg)
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &DeviceIOError{Op: op, Request: req, Errno: errno}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// enumerate is Control with EINVAL mapped to ErrEnumerationExhausted.
func (d *Device) enumerate(op string, req Opcode, arg unsafe.Pointer) error {
	err := d.Control(op, req, arg)
	if errors.Is(err, syscall.EINVAL) {
		return ErrEnumerationExhausted
	}
	return err
}

// QueryCapability returns the driver identity and effective capabilities.
func (d *Device) QueryCapability() (DeviceInfo, error) {
	c := v4l2Capability{}
	if err := d.Control("VIDIOC_QUERYCAP", vidiocQuerycap, unsafe.Pointer(&c)); err != nil {
		return DeviceInfo{}, err
	}
	caps := c.capabilities
	if caps&v4l2CapDeviceCaps != 0 {
		caps = c.deviceCaps
	}
	return DeviceInfo{
		DevicePath: d.path,
		DeviceName: cstr(c.card[:]),
		Driver:     cstr(c.driver[:]),
		BusInfo:    cstr(c.busInfo[:]),
		Caps:       caps,
	}, nil
}

// FindDevices finds all V4L2 video capture devices on the system.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/video4linux")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "video") {
			continue
		}
		devicePath := "/dev/" + entry.Name()

		dev, err := Open(devicePath)
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to open video device", "path", devicePath, "error", err)
			continue
		}
		info, err := dev.QueryCapability()
		_ = dev.Close()
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to query device capabilities", "path", devicePath, "error", err)
			continue
		}

		// Only include video capture devices
		if info.Caps&v4l2CapVideoCapture == 0 {
			continue
		}
		devices = append(devices, info)
	}

	sort.Slice(devices, func(i, j int) bool {
		return deviceIndex(devices[i].DevicePath) < deviceIndex(devices[j].DevicePath)
	})
	return devices, nil
}

func deviceIndex(path string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(path, "/dev/video"))
	if err != nil {
		return -1
	}
	return n
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
