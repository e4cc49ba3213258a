//go:build linux

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/smazurov/mipicam/internal/camera"
	"github.com/smazurov/mipicam/internal/devices"
	"github.com/smazurov/mipicam/internal/logging"
	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/internal/platform"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
	"github.com/spf13/cobra"
)

// deviceFlags are shared by every command that touches a capture node.
type deviceFlags struct {
	device  string
	logJSON bool
}

func (f *deviceFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.device, "device", "d", "0", "Video device index, /dev path, or by-id/by-path name")
	c.Flags().BoolVar(&f.logJSON, "log-json", false, "Log in JSON format")
}

// logger initializes minimal logging for a one-shot command.
func (f *deviceFlags) logger(module string) *slog.Logger {
	cfg := logging.Config{Level: "warn", Format: "text"}
	if f.logJSON {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
	return logging.GetLogger(module)
}

func (f *deviceFlags) path() (string, error) {
	return devices.ResolvePath(f.device)
}

func (f *deviceFlags) open() (*v4l2.Device, error) {
	path, err := f.path()
	if err != nil {
		return nil, err
	}
	return v4l2.Open(path)
}

// withRegisters opens the device and hands its private register
// interface to fn.
func (f *deviceFlags) withRegisters(fn func(*arducam.Device) error) error {
	dev, err := f.open()
	if err != nil {
		return err
	}
	defer dev.Close()
	return fn(arducam.New(dev))
}

// sessionFlags add the negotiation knobs on top of deviceFlags.
type sessionFlags struct {
	deviceFlags
	platformOverride string
	preferred        string
	chooser          string
}

func (f *sessionFlags) register(c *cobra.Command) {
	f.deviceFlags.register(c)
	c.Flags().StringVar(&f.platformOverride, "platform", "", "Platform name, skips device-tree detection")
	c.Flags().StringVar(&f.preferred, "preferred-format", "none", "FourCC to request before negotiation")
	c.Flags().StringVar(&f.chooser, "chooser", negotiate.ChooserNone, "Candidate chooser: none, prompt or tui")
}

func (f *sessionFlags) openSession(ctx context.Context, logger *slog.Logger) (*camera.Session, error) {
	path, err := f.path()
	if err != nil {
		return nil, err
	}
	preferred, err := parsePixelFormat(f.preferred)
	if err != nil {
		return nil, err
	}
	chooser, err := negotiate.NewChooser(f.chooser, os.Stdin, os.Stdout)
	if err != nil {
		return nil, err
	}
	return camera.Open(ctx, camera.Options{
		DevicePath:      path,
		PreferredFormat: preferred,
		Platform:        platform.Detect(f.platformOverride, platform.DefaultModelPaths),
		Chooser:         chooser,
		Logger:          logger,
	})
}

// fail logs err under msg and returns it wrapped for cobra to report.
func fail(logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, "error", err)
	return fmt.Errorf("%s: %w", msg, err)
}
