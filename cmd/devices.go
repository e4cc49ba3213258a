//go:build linux

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:          "devices",
		Short:        "List video capture devices",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := flags.logger("cli")

			found, err := v4l2.FindDevices()
			if err != nil {
				return fail(logger, "Failed to list devices", err)
			}
			printDevices(os.Stdout, found)
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.logJSON, "log-json", false, "Log in JSON format")
	return cmd
}

func printDevices(w io.Writer, found []v4l2.DeviceInfo) {
	if len(found) == 0 {
		fmt.Fprintln(w, "No video capture devices found")
		return
	}
	for _, d := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.DevicePath, d.Driver, d.DeviceName, d.BusInfo)
	}
}
