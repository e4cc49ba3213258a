package arducam

import (
	"errors"
	"fmt"
)

// Info is the identity block exposed by the bridge firmware.
// Fields the firmware does not report are left zero.
type Info struct {
	FirmwareVersion  uint32 `json:"firmware_version"`
	FirmwareSensorID uint32 `json:"firmware_sensor_id"`
	SensorID         uint32 `json:"sensor_id"`
	SerialNumber     uint32 `json:"serial_number"`
}

// Info reads the firmware identity registers. A register
// holding NoDataAvailable leaves its field zero; transport errors abort.
func (d *Device) Info() (Info, error) {
	var info Info
	fields := []struct {
		reg Register
		dst *uint32
	}{
		{FirmwareVersionReg, &info.FirmwareVersion},
		{FirmwareSensorIDReg, &info.FirmwareSensorID},
		{SensorIDReg, &info.SensorID},
		{SerialNumberReg, &info.SerialNumber},
	}
	for _, f := range fields {
		v, err := d.readData(f.reg)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return info, err
		}
		*f.dst = v
	}
	return info, nil
}

// Lines renders the block the way the vendor tools print it.
func (i Info) Lines() []string {
	return []string{
		fmt.Sprintf("Firmware Version: %d", i.FirmwareVersion),
		fmt.Sprintf("Sensor ID: 0x%04X", i.SensorID),
		fmt.Sprintf("Serial Number: 0x%08X", i.SerialNumber),
	}
}
