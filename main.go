//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/mipicam/cmd"
	"github.com/smazurov/mipicam/internal/api"
	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/smazurov/mipicam/internal/camera"
	"github.com/smazurov/mipicam/internal/capture"
	"github.com/smazurov/mipicam/internal/config"
	"github.com/smazurov/mipicam/internal/devices"
	"github.com/smazurov/mipicam/internal/events"
	"github.com/smazurov/mipicam/internal/logging"
	"github.com/smazurov/mipicam/internal/metrics"
	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/internal/platform"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"mipicam.toml"`

	// Device settings
	DeviceIndex           string `help:"Video device index, /dev path, or by-id/by-path name" default:"0" toml:"device.index" env:"DEVICE_INDEX"`
	DevicePixelFormat     string `help:"Capture pixel format FourCC, empty keeps the negotiated one" default:"" toml:"device.pixel_format" env:"DEVICE_PIXEL_FORMAT"`
	DeviceWidth           int    `help:"Capture width, 0 keeps the current one" default:"0" toml:"device.width" env:"DEVICE_WIDTH"`
	DeviceHeight          int    `help:"Capture height, 0 keeps the current one" default:"0" toml:"device.height" env:"DEVICE_HEIGHT"`
	DeviceChannel         int    `help:"Adapter board channel (0-3), other values leave it alone" default:"-1" toml:"device.channel" env:"DEVICE_CHANNEL"`
	DevicePreferredFormat string `help:"FourCC requested before negotiation, none to skip" default:"RG10" toml:"device.preferred_format" env:"DEVICE_PREFERRED_FORMAT"`

	// Negotiation settings
	NegotiateInteractive bool   `help:"Ask which format to use when several match" default:"false" toml:"negotiate.interactive" env:"NEGOTIATE_INTERACTIVE"`
	NegotiateChooser     string `help:"Interactive chooser (prompt, tui)" default:"prompt" toml:"negotiate.chooser" env:"NEGOTIATE_CHOOSER"`

	// Platform settings
	PlatformOverride   string `help:"Platform name, skips device-tree detection" default:"" toml:"platform.override" env:"PLATFORM_OVERRIDE"`
	PlatformModelPaths string `help:"Comma-separated device-tree model files" default:"" toml:"platform.model_paths" env:"PLATFORM_MODEL_PATHS"`

	// Capture settings
	CaptureFPS            bool   `help:"Print frames per second" default:"false" toml:"capture.fps" env:"CAPTURE_FPS"`
	CaptureFrames         int    `help:"Stop after this many frames, 0 runs until interrupted" default:"0" toml:"capture.frames" env:"CAPTURE_FRAMES"`
	CaptureResizeWidth    int    `help:"Resize frames to this width, -1 disables" default:"1280" toml:"capture.resize_width" env:"CAPTURE_RESIZE_WIDTH"`
	CaptureSnapshotDir    string `help:"Directory for the final frame snapshot" default:"" toml:"capture.snapshot_dir" env:"CAPTURE_SNAPSHOT_DIR"`
	CaptureSnapshotFormat string `help:"Snapshot format (png, jpeg, bmp, tiff)" default:"png" toml:"capture.snapshot_format" env:"CAPTURE_SNAPSHOT_FORMAT"`
	CaptureTimeoutMs      int    `help:"Frame wait timeout in milliseconds" default:"5000" toml:"capture.timeout_ms" env:"CAPTURE_TIMEOUT_MS"`
	CaptureBuffers        int    `help:"Number of mmap buffers" default:"4" toml:"capture.buffers" env:"CAPTURE_BUFFERS"`

	// Server settings
	ServerEnabled bool   `help:"Serve the HTTP API while capturing" default:"false" toml:"server.enabled" env:"SERVER_ENABLED"`
	Port          string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDevice    string `help:"Device session logging level" default:"info" toml:"logging.device" env:"LOGGING_DEVICE"`
	LoggingNegotiate string `help:"Negotiation logging level" default:"info" toml:"logging.negotiate" env:"LOGGING_NEGOTIATE"`
	LoggingCapture   string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingPlatform  string `help:"Platform detection logging level" default:"info" toml:"logging.platform" env:"LOGGING_PLATFORM"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"device":    opts.LoggingDevice,
				"negotiate": opts.LoggingNegotiate,
				"capture":   opts.LoggingCapture,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingAPI,
				"platform":  opts.LoggingPlatform,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup

		hooks.OnStart(func() {
			wg.Add(1)
			defer wg.Done()
			if err := run(ctx, opts, eventBus); err != nil {
				logger.Error("Camera run failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			wg.Wait()
		})
	})

	cli.Root().Use = "mipicam"
	cli.Root().Short = "Negotiate, convert and capture frames from an Arducam MIPI camera"

	cli.Root().AddCommand(cmd.CreateInfoCmd())
	cli.Root().AddCommand(cmd.CreateFormatsCmd())
	cli.Root().AddCommand(cmd.CreateSizesCmd())
	cli.Root().AddCommand(cmd.CreatePolicyCmd())
	cli.Root().AddCommand(cmd.CreateRegCmd())
	cli.Root().AddCommand(cmd.CreateSensorCmd())
	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}

// run opens the session, captures until ctx is done or enough frames were
// taken, and serves the API alongside when enabled.
func run(ctx context.Context, opts *Options, bus *events.Bus) error {
	logger := logging.GetLogger("main")

	path, err := devices.ResolvePath(opts.DeviceIndex)
	if err != nil {
		return err
	}
	preferred, err := parseFourCC(opts.DevicePreferredFormat)
	if err != nil {
		return fmt.Errorf("device.preferred_format: %w", err)
	}

	chooserKind := negotiate.ChooserNone
	if opts.NegotiateInteractive {
		chooserKind = opts.NegotiateChooser
	}
	chooser, err := negotiate.NewChooser(chooserKind, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	session, err := camera.Open(ctx, camera.Options{
		DevicePath:      path,
		PreferredFormat: preferred,
		Platform:        platform.Detect(opts.PlatformOverride, modelPaths(opts.PlatformModelPaths)),
		Chooser:         chooser,
		Bus:             bus,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if opts.DeviceChannel >= 0 && opts.DeviceChannel < arducam.MaxChannels {
		if chErr := session.Registers().SwitchChannel(opts.DeviceChannel); chErr != nil {
			logger.Warn("Failed to switch channel", "channel", opts.DeviceChannel, "error", chErr)
		}
	}

	if info, infoErr := session.Info(); infoErr != nil {
		logger.Warn("Failed to read device info", "error", infoErr)
	} else {
		for _, line := range info.Lines() {
			fmt.Println(line)
		}
	}

	webcamCfg, err := captureFormat(session, opts)
	if err != nil {
		return err
	}
	src, err := capture.OpenWebcam(webcamCfg)
	if err != nil {
		return err
	}
	defer src.Close()

	latest := &capture.Latest{}
	if opts.ServerEnabled {
		server := api.NewServer(&api.Options{
			Camera:            session,
			Latest:            latest,
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			PrometheusHandler: metrics.Handler(),
		})
		go func() {
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
			}
		}()
		defer func() {
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
		}()
	}

	watcher := config.NewWatcher(opts.Config, config.LoadFile, logging.GetLogger("config"))
	watcher.OnReload(func(f config.File) {
		applyReload(ctx, session, f, logger)
	})
	if watchErr := watcher.Start(ctx); watchErr != nil {
		logger.Warn("Config hot reload disabled", "error", watchErr)
	} else {
		defer watcher.Stop()
	}

	stats, err := capture.Run(ctx, session, src, capture.Options{
		Frames:         opts.CaptureFrames,
		Timeout:        time.Duration(opts.CaptureTimeoutMs) * time.Millisecond,
		ResizeWidth:    opts.CaptureResizeWidth,
		ShowFPS:        opts.CaptureFPS,
		Latest:         latest,
		SnapshotDir:    opts.CaptureSnapshotDir,
		SnapshotFormat: opts.CaptureSnapshotFormat,
		Bus:            bus,
		Logger:         logging.GetLogger("capture"),
	})
	for _, line := range stats.Summary() {
		fmt.Println(line)
	}
	if err != nil {
		return err
	}

	// With the API enabled, keep serving the last frame until interrupted.
	if opts.ServerEnabled && ctx.Err() == nil {
		logger.Info("Capture finished, API still serving", "port", opts.Port)
		<-ctx.Done()
	}
	return nil
}

// captureFormat starts from the negotiated device format and applies any
// configured overrides.
func captureFormat(session *camera.Session, opts *Options) (capture.WebcamConfig, error) {
	cur, err := session.Format()
	if err != nil {
		return capture.WebcamConfig{}, err
	}
	cfg := capture.WebcamConfig{
		DevicePath:  session.Path(),
		PixelFormat: cur.PixelFormat,
		Width:       cur.Width,
		Height:      cur.Height,
	}
	if opts.CaptureBuffers > 0 {
		cfg.Buffers = uint32(opts.CaptureBuffers)
	}
	if pf, pfErr := parseFourCC(opts.DevicePixelFormat); pfErr != nil {
		return cfg, fmt.Errorf("device.pixel_format: %w", pfErr)
	} else if pf != 0 {
		cfg.PixelFormat = pf
	}
	if opts.DeviceWidth > 0 {
		cfg.Width = uint32(opts.DeviceWidth)
	}
	if opts.DeviceHeight > 0 {
		cfg.Height = uint32(opts.DeviceHeight)
	}
	return cfg, nil
}

// applyReload updates log levels and, when the preferred format changed,
// re-resolves the session policy.
func applyReload(ctx context.Context, session *camera.Session, f config.File, logger *slog.Logger) {
	if len(f.Logging) > 0 {
		logCfg := f.LoggingConfig()
		if err := logging.SetLevel("", logCfg.Level); err != nil {
			logger.Warn("Ignoring reloaded log level", "error", err)
		}
		for module, level := range logCfg.Modules {
			if err := logging.SetLevel(module, level); err != nil {
				logger.Warn("Ignoring reloaded log level", "module", module, "error", err)
			}
		}
	}

	if f.Device.PreferredFormat == "" {
		return
	}
	preferred, err := parseFourCC(f.Device.PreferredFormat)
	if err != nil {
		logger.Warn("Ignoring reloaded preferred format", "value", f.Device.PreferredFormat, "error", err)
		return
	}
	if preferred == session.PreferredFormat() {
		return
	}

	session.SetPreferredFormat(preferred)
	decision, err := session.Refresh(ctx)
	if err != nil {
		logger.Warn("Policy refresh after reload failed, keeping previous policy", "error", err)
		return
	}
	logger.Info("Policy refreshed after reload", "policy", decision.Policy.String(), "source", decision.Source)
}

func parseFourCC(s string) (uint32, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return 0, nil
	}
	return v4l2.ParseFourCC(s)
}

func modelPaths(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return platform.DefaultModelPaths
	}
	var paths []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
