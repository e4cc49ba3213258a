//go:build linux

package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/spf13/cobra"
)

// CreateRegCmd creates the reg command for bridge device registers.
func CreateRegCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:   "reg <name|address> [value]",
		Short: "Read or write a bridge device register",
		Long: `Reads a device register when only a register is given, writes it when a value follows. ` +
			`Registers may be named (e.g. FIRMWARE_VERSION) or given as an address.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			logger := flags.logger("cli")

			reg, err := arducam.ParseRegister(args[0])
			if err != nil {
				return fail(logger, "Invalid register", err)
			}

			var val uint64
			if len(args) == 2 {
				val, err = parseValue(args[1], 32)
				if err != nil {
					return fail(logger, "Invalid value", err)
				}
			}

			err = flags.withRegisters(func(regs *arducam.Device) error {
				if len(args) == 2 {
					return regs.WriteDeviceRegister(reg, uint32(val))
				}
				got, err := regs.ReadDeviceRegister(reg)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "%s = 0x%08X\n", reg, got)
				return nil
			})
			if err != nil {
				return fail(logger, "Register access failed", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// CreateSensorCmd creates the sensor command for image sensor registers.
func CreateSensorCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:          "sensor <address> [value]",
		Short:        "Read or write a 16-bit sensor register through the bridge",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			logger := flags.logger("cli")

			addr, err := parseValue(args[0], 16)
			if err != nil {
				return fail(logger, "Invalid address", err)
			}

			var val uint64
			if len(args) == 2 {
				val, err = parseValue(args[1], 16)
				if err != nil {
					return fail(logger, "Invalid value", err)
				}
			}

			err = flags.withRegisters(func(regs *arducam.Device) error {
				if len(args) == 2 {
					return regs.WriteSensorRegister(uint16(addr), uint16(val))
				}
				got, err := regs.ReadSensorRegister(uint16(addr))
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "0x%04X = 0x%04X\n", addr, got)
				return nil
			})
			if err != nil {
				return fail(logger, "Sensor register access failed", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
