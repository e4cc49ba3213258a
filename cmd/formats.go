//go:build linux

package cmd

import (
	"os"

	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/internal/platform"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
	"github.com/spf13/cobra"
)

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd() *cobra.Command {
	var flags deviceFlags
	var platformOverride string

	cmd := &cobra.Command{
		Use:          "formats",
		Short:        "List pixel formats advertised by the device",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := flags.logger("cli")

			dev, err := flags.open()
			if err != nil {
				return fail(logger, "Failed to open device", err)
			}
			defer dev.Close()

			formats, err := dev.GetFormats()
			if err != nil {
				return fail(logger, "Failed to enumerate formats", err)
			}

			name, err := platform.Detect(platformOverride, platform.DefaultModelPaths).Identify()
			if err != nil {
				logger.Warn("Platform detection failed, assuming standard bit depth", "error", err)
			}
			printFormats(os.Stdout, formats, negotiate.TableForPlatform(name))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&platformOverride, "platform", "", "Platform name, skips device-tree detection")
	return cmd
}

// CreateSizesCmd creates the sizes command.
func CreateSizesCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:          "sizes [fourcc]",
		Short:        "List frame sizes for a pixel format",
		Long:         "Lists the discrete or stepwise frame sizes the driver reports for a FourCC (default Y16).",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			logger := flags.logger("cli")

			pixelFormat := v4l2.PixFmtY16
			if len(args) == 1 {
				pf, err := parsePixelFormat(args[0])
				if err != nil {
					return fail(logger, "Invalid pixel format", err)
				}
				pixelFormat = pf
			}

			dev, err := flags.open()
			if err != nil {
				return fail(logger, "Failed to open device", err)
			}
			defer dev.Close()

			sizes, err := dev.GetFrameSizes(pixelFormat)
			if err != nil {
				return fail(logger, "Failed to enumerate frame sizes", err)
			}
			printSizes(os.Stdout, pixelFormat, sizes)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
