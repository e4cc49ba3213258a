// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stderr when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// Stdout is left to command output such as format listings.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"negotiate": "debug",  // Per-module overrides
//			"api":       "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Capture started", "device", "/dev/video0")
//
// Levels can be changed while running, which the config watcher uses:
//
//	_ = logging.SetLevel("negotiate", "debug")
//
// # Modules
//
//	main      - startup, shutdown, CLI commands
//	device    - session lifecycle and bridge registers
//	negotiate - pixel format policy resolution
//	platform  - board identification
//	capture   - frame loop and snapshots
//	api, http - REST server and request logging
//	config    - configuration loading and reloads
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t mipicam              # All mipicam logs
//	journalctl -t mipicam -f           # Follow live
//	journalctl -t mipicam -p err       # Errors only
//	journalctl -t mipicam MODULE=negotiate
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	negotiate = "debug"
//	http = "warn"
package logging
