// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for capture format enumeration and negotiation.
//
// This package does not use cgo, enabling simple cross-compilation for
// the Jetson targets (arm64) as well as amd64 and 32-bit arm.
//
// # Request Codes
//
// Request codes are built with the same bit layout as the kernel's
// _IOC macros. Driver-private requests start at [BaseVidiocPrivate]:
//
//	readI2C := v4l2.IOWR('V', v4l2.BaseVidiocPrivate+0, 4)
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Format Queries
//
// Formats and frame sizes are lazy sequences. Enumeration stops when the
// driver reports the end of its list; genuine failures surface as
// *DeviceIOError:
//
//	dev, _ := v4l2.Open("/dev/video0")
//	defer dev.Close()
//	for f, err := range dev.Formats() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(v4l2.DescribeFourCC(f.PixelFormat), f.Description)
//	}
package v4l2
