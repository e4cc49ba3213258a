package arducam

import (
	"fmt"
	"unsafe"

	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// MaxChannels is the number of inputs on the multi-camera adapter boards.
const MaxChannels = 4

// Controller issues private control requests on an open capture node.
// *v4l2.Device satisfies it.
type Controller interface {
	Control(op string, req v4l2.Opcode, arg unsafe.Pointer) error
}

// Device speaks the bridge's register protocol. Calls are not serialized;
// the owner of the capture node must not issue them concurrently.
type Device struct {
	ctl Controller
}

// New wraps an open capture node.
func New(ctl Controller) *Device {
	return &Device{ctl: ctl}
}

// ReadDeviceRegister reads a 32-bit bridge register.
func (d *Device) ReadDeviceRegister(reg Register) (uint32, error) {
	req := devRequest{reg: uint16(reg)}
	if err := d.ctl.Control("VIDIOC_R_DEV", vidiocReadDev, unsafe.Pointer(&req)); err != nil {
		return 0, fmt.Errorf("read device register 0x%04X: %w", uint16(reg), err)
	}
	return req.val, nil
}

// WriteDeviceRegister writes a 32-bit bridge register.
func (d *Device) WriteDeviceRegister(reg Register, val uint32) error {
	req := devRequest{reg: uint16(reg), val: val}
	if err := d.ctl.Control("VIDIOC_W_DEV", vidiocWriteDev, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("write device register 0x%04X: %w", uint16(reg), err)
	}
	return nil
}

// ReadSensorRegister reads a 16-bit register on the image sensor over I2C.
func (d *Device) ReadSensorRegister(reg uint16) (uint16, error) {
	req := i2cRequest{reg: reg}
	if err := d.ctl.Control("VIDIOC_R_I2C", vidiocReadI2C, unsafe.Pointer(&req)); err != nil {
		return 0, fmt.Errorf("read sensor register 0x%04X: %w", reg, err)
	}
	return req.val, nil
}

// WriteSensorRegister writes a 16-bit register on the image sensor over I2C.
func (d *Device) WriteSensorRegister(reg, val uint16) error {
	req := i2cRequest{reg: reg, val: val}
	if err := d.ctl.Control("VIDIOC_W_I2C", vidiocWriteI2C, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("write sensor register 0x%04X: %w", reg, err)
	}
	return nil
}

// readData is ReadDeviceRegister with NoDataAvailable mapped to ErrNoData.
func (d *Device) readData(reg Register) (uint32, error) {
	v, err := d.ReadDeviceRegister(reg)
	if err != nil {
		return 0, err
	}
	if v == NoDataAvailable {
		return 0, fmt.Errorf("register 0x%04X: %w", uint16(reg), ErrNoData)
	}
	return v, nil
}

// IsBridge reports whether the node is backed by an Arducam bridge.
func (d *Device) IsBridge() (bool, error) {
	id, err := d.ReadDeviceRegister(DeviceIDReg)
	if err != nil {
		return false, err
	}
	return id == BridgeDeviceID, nil
}

// SwitchChannel selects the active input on multi-camera adapters.
func (d *Device) SwitchChannel(channel int) error {
	if channel < 0 || channel >= MaxChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return d.WriteDeviceRegister(ChannelSwitchReg, uint32(channel))
}

// SetStreaming toggles the bridge's stream-on register.
func (d *Device) SetStreaming(on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return d.WriteDeviceRegister(StreamOnReg, v)
}

// MIPILanes returns the number of CSI lanes the bridge is configured for.
func (d *Device) MIPILanes() (uint32, error) {
	return d.readData(MIPILanesReg)
}
