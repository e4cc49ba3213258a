package arducam

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// Register is a 16-bit address in the bridge's device register space.
// The high byte selects a bank, the low byte the register inside it.
type Register uint16

// Register banks.
const (
	DeviceBank    Register = 0x0100
	PixFormatBank Register = 0x0200
	FormatBank    Register = 0x0300
	CtrlBank      Register = 0x0400
	SensorBank    Register = 0x0500
)

// Device bank.
const (
	StreamOnReg         = DeviceBank | 0x0000
	FirmwareVersionReg  = DeviceBank | 0x0001
	SensorIDReg         = DeviceBank | 0x0002
	DeviceIDReg         = DeviceBank | 0x0003
	FirmwareSensorIDReg = DeviceBank | 0x0005
	SerialNumberReg     = DeviceBank | 0x0006
	ChannelSwitchReg    = DeviceBank | 0x0008
)

// Pixel format bank.
const (
	PixFormatIndexReg = PixFormatBank | 0x0000
	PixFormatTypeReg  = PixFormatBank | 0x0001
	PixFormatOrderReg = PixFormatBank | 0x0002
	MIPILanesReg      = PixFormatBank | 0x0003
)

// Resolution bank.
const (
	ResolutionIndexReg = FormatBank | 0x0000
	FormatWidthReg     = FormatBank | 0x0001
	FormatHeightReg    = FormatBank | 0x0002
)

// Control bank.
const (
	CtrlIndexReg   = CtrlBank | 0x0000
	CtrlIDReg      = CtrlBank | 0x0001
	CtrlMinReg     = CtrlBank | 0x0002
	CtrlMaxReg     = CtrlBank | 0x0003
	CtrlStepReg    = CtrlBank | 0x0004
	CtrlDefaultReg = CtrlBank | 0x0005
	CtrlValueReg   = CtrlBank | 0x0006
)

// Sensor access bank.
const (
	SensorRdReg = SensorBank | 0x0001
	SensorWrReg = SensorBank | 0x0002
)

// NoDataAvailable is the sentinel a device register holds when the
// firmware has nothing to report.
const NoDataAvailable uint32 = 0xFFFFFFFE

// BridgeDeviceID is the value DeviceIDReg reports on Arducam bridges.
const BridgeDeviceID uint32 = 0x0030

// i2cRequest mirrors the driver's {u16 reg; u16 val} exchange record.
type i2cRequest struct {
	reg uint16
	val uint16
}

// devRequest mirrors the driver's {u16 reg; u32 val} exchange record,
// including the two bytes of natural-alignment padding after reg.
type devRequest struct {
	reg uint16
	_   uint16
	val uint32
}

var (
	_ [4]byte = [unsafe.Sizeof(i2cRequest{})]byte{}
	_ [8]byte = [unsafe.Sizeof(devRequest{})]byte{}
)

// Private request codes.
var (
	vidiocReadI2C  = v4l2.IOWR('V', v4l2.BaseVidiocPrivate+0, unsafe.Sizeof(i2cRequest{}))
	vidiocWriteI2C = v4l2.IOWR('V', v4l2.BaseVidiocPrivate+1, unsafe.Sizeof(i2cRequest{}))
	vidiocReadDev  = v4l2.IOWR('V', v4l2.BaseVidiocPrivate+2, unsafe.Sizeof(devRequest{}))
	vidiocWriteDev = v4l2.IOWR('V', v4l2.BaseVidiocPrivate+3, unsafe.Sizeof(devRequest{}))
)

var registerNames = map[string]Register{
	"STREAM_ON":          StreamOnReg,
	"FIRMWARE_VERSION":   FirmwareVersionReg,
	"SENSOR_ID":          SensorIDReg,
	"DEVICE_ID":          DeviceIDReg,
	"FIRMWARE_SENSOR_ID": FirmwareSensorIDReg,
	"SERIAL_NUMBER":      SerialNumberReg,
	"CHANNEL_SWITCH":     ChannelSwitchReg,
	"PIXFORMAT_INDEX":    PixFormatIndexReg,
	"PIXFORMAT_TYPE":     PixFormatTypeReg,
	"PIXFORMAT_ORDER":    PixFormatOrderReg,
	"MIPI_LANES":         MIPILanesReg,
	"RESOLUTION_INDEX":   ResolutionIndexReg,
	"FORMAT_WIDTH":       FormatWidthReg,
	"FORMAT_HEIGHT":      FormatHeightReg,
	"CTRL_INDEX":         CtrlIndexReg,
	"CTRL_ID":            CtrlIDReg,
	"CTRL_MIN":           CtrlMinReg,
	"CTRL_MAX":           CtrlMaxReg,
	"CTRL_STEP":          CtrlStepReg,
	"CTRL_DEF":           CtrlDefaultReg,
	"CTRL_VALUE":         CtrlValueReg,
	"SENSOR_RD":          SensorRdReg,
	"SENSOR_WR":          SensorWrReg,
}

// ParseRegister accepts a symbolic name such as "SERIAL_NUMBER" or a
// numeric address such as "0x0106".
func ParseRegister(s string) (Register, error) {
	if r, ok := registerNames[strings.TrimSuffix(strings.ToUpper(s), "_REG")]; ok {
		return r, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown register %q", s)
	}
	return Register(v), nil
}

// String returns the symbolic name, or the hex address when unnamed.
func (r Register) String() string {
	for name, reg := range registerNames {
		if reg == r {
			return name
		}
	}
	return fmt.Sprintf("0x%04X", uint16(r))
}
