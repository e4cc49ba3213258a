//go:build linux

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/spf13/cobra"
)

// CreateInfoCmd creates the info command.
func CreateInfoCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:          "info",
		Short:        "Show bridge firmware and sensor information",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := flags.logger("cli")
			err := flags.withRegisters(func(regs *arducam.Device) error {
				return writeInfo(os.Stdout, regs)
			})
			if err != nil {
				return fail(logger, "Failed to read device info", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func writeInfo(w io.Writer, regs *arducam.Device) error {
	info, err := regs.Info()
	if err != nil {
		return err
	}
	for _, line := range info.Lines() {
		fmt.Fprintln(w, line)
	}
	return nil
}
