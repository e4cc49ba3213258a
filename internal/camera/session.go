// Package camera ties one open video device to its negotiated conversion
// policy.
//
// A Session owns the device handle, the policy table chosen from the host
// platform and the active convert.Policy. The policy is resolved when the
// session opens and again only when Refresh is called. Device I/O through a
// Session is serialized; Convert may run concurrently with Refresh.
package camera

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/internal/events"
	"github.com/smazurov/mipicam/internal/logging"
	"github.com/smazurov/mipicam/internal/metrics"
	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/internal/platform"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// DefaultPreferredFormat is requested from the driver before every
// resolution unless Options overrides it.
const DefaultPreferredFormat = v4l2.PixFmtSRGGB10

// ErrClosed is returned by operations on a closed Session.
var ErrClosed = errors.New("camera: session closed")

// Device is the subset of *v4l2.Device a Session drives.
type Device interface {
	Formats() iter.Seq2[v4l2.FormatInfo, error]
	FrameSizes(pixelFormat uint32) iter.Seq2[v4l2.Resolution, error]
	GetFormat() (v4l2.PixFormat, error)
	GetPixelFormat() (uint32, error)
	QueryCapability() (v4l2.DeviceInfo, error)
	TrySetPixelFormat(target uint32) uint32
	Control(op string, req v4l2.Opcode, arg unsafe.Pointer) error
	Path() string
	Close() error
}

// Options configures Open and New.
type Options struct {
	DevicePath string

	// PreferredFormat is set on the device before resolving. Zero keeps
	// whatever the driver has active.
	PreferredFormat uint32

	// Platform identifies the host. Nil reads the device-tree model.
	Platform platform.Identifier

	// Chooser disambiguates several matching formats. Nil is headless.
	Chooser negotiate.Chooser

	Logger *slog.Logger
	Bus    *events.Bus
}

// Session is one negotiated camera.
type Session struct {
	id       string
	dev      Device
	regs     *arducam.Device
	platform string
	table    negotiate.Table
	chooser  negotiate.Chooser
	bus      *events.Bus
	logger   *slog.Logger

	devMu  sync.Mutex
	closed bool

	mu        sync.RWMutex
	preferred uint32
	decision  negotiate.Decision
}

// New starts a session on an already open device and resolves its policy.
// The session takes ownership of dev only on success.
func New(ctx context.Context, dev Device, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("device")
	}
	logger = logger.With("device", dev.Path())

	ident := opts.Platform
	if ident == nil {
		ident = platform.ModelFile{}
	}
	name, err := ident.Identify()
	if err != nil {
		logger.Warn("Platform detection failed, assuming standard bit depth", "error", err)
		name = ""
	}
	table := negotiate.TableForPlatform(name)

	s := &Session{
		id:        uuid.NewString(),
		dev:       dev,
		platform:  name,
		table:     table,
		chooser:   opts.Chooser,
		bus:       opts.Bus,
		logger:    logger,
		preferred: opts.PreferredFormat,
	}
	s.regs = arducam.New(lockedControl{s})

	logger.Info("Camera session opened", "session", s.id, "platform", name, "table", table.Name())

	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// lockedControl serializes register traffic with the session's other
// device I/O.
type lockedControl struct{ s *Session }

func (c lockedControl) Control(op string, req v4l2.Opcode, arg unsafe.Pointer) error {
	return c.s.withDevice(func(d Device) error {
		return d.Control(op, req, arg)
	})
}

func (s *Session) withDevice(fn func(Device) error) error {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.dev)
}

// Refresh re-applies the preferred format and resolves the policy again.
// On error the previous policy stays active.
func (s *Session) Refresh(ctx context.Context) (negotiate.Decision, error) {
	if err := ctx.Err(); err != nil {
		return negotiate.Decision{}, err
	}

	s.mu.RLock()
	preferred := s.preferred
	s.mu.RUnlock()

	var d negotiate.Decision
	err := s.withDevice(func(dev Device) error {
		if preferred != 0 {
			dev.TrySetPixelFormat(preferred)
		}
		current, err := dev.GetPixelFormat()
		if err != nil {
			return fmt.Errorf("read active format: %w", err)
		}
		r := negotiate.Resolver{Table: s.table, Chooser: s.chooser, Logger: s.logger}
		d, err = r.Resolve(current, dev)
		return err
	})
	metrics.RecordRefresh(s.dev.Path(), err)
	if err != nil {
		s.logger.Error("Policy resolution failed", "error", err)
		return negotiate.Decision{}, err
	}

	s.mu.Lock()
	s.decision = d
	s.mu.Unlock()

	s.logger.Info("Conversion policy resolved",
		"pixel_format", fourCC(d.PixelFormat),
		"source", d.Source,
		"policy", d.Policy.String(),
		"candidates", len(d.Candidates))

	metrics.SetPolicy(s.dev.Path(), metrics.PolicyLabels{
		PixelFormat: fourCC(d.PixelFormat),
		Table:       d.Table,
		Source:      string(d.Source),
		BitDepth:    d.Policy.BitDepth,
		ColorCode:   int(d.Policy.ColorCode),
		PassThrough: d.Policy.PassThrough,
	})
	if s.bus != nil {
		s.bus.Publish(events.PolicyResolvedEvent{
			SessionID:   s.id,
			DevicePath:  s.dev.Path(),
			PixelFormat: fourCC(d.PixelFormat),
			Table:       d.Table,
			Source:      string(d.Source),
			BitDepth:    d.Policy.BitDepth,
			ColorCode:   int(d.Policy.ColorCode),
			PassThrough: d.Policy.PassThrough,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		})
	}
	return d, nil
}

// Policy returns the active conversion policy.
func (s *Session) Policy() convert.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decision.Policy
}

// Decision returns the full outcome of the last successful resolution.
func (s *Session) Decision() negotiate.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decision
}

// Convert applies the active policy to frame.
func (s *Session) Convert(frame *convert.Frame) *convert.Frame {
	start := time.Now()
	out := convert.Convert(s.Policy(), frame)
	metrics.RecordFrame(s.dev.Path(), time.Since(start))
	return out
}

// SetPreferredFormat changes the format requested on the next Refresh.
func (s *Session) SetPreferredFormat(pixelFormat uint32) {
	s.mu.Lock()
	s.preferred = pixelFormat
	s.mu.Unlock()
}

// PreferredFormat returns the format requested before each resolution.
func (s *Session) PreferredFormat() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferred
}

// Formats lists the pixel formats the device advertises.
func (s *Session) Formats() ([]v4l2.FormatInfo, error) {
	var out []v4l2.FormatInfo
	err := s.withDevice(func(d Device) error {
		for f, err := range d.Formats() {
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		return nil
	})
	return out, err
}

// FrameSizes lists the frame sizes the device offers for pixelFormat.
func (s *Session) FrameSizes(pixelFormat uint32) ([]v4l2.Resolution, error) {
	var out []v4l2.Resolution
	err := s.withDevice(func(d Device) error {
		for r, err := range d.FrameSizes(pixelFormat) {
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Format returns the device's active capture format.
func (s *Session) Format() (v4l2.PixFormat, error) {
	var pf v4l2.PixFormat
	err := s.withDevice(func(d Device) error {
		var err error
		pf, err = d.GetFormat()
		return err
	})
	return pf, err
}

// Capability returns the driver's identity and capability flags.
func (s *Session) Capability() (v4l2.DeviceInfo, error) {
	var info v4l2.DeviceInfo
	err := s.withDevice(func(d Device) error {
		var err error
		info, err = d.QueryCapability()
		return err
	})
	return info, err
}

// Registers gives access to the bridge's private register interface.
func (s *Session) Registers() *arducam.Device { return s.regs }

// Info reads the bridge's firmware and sensor identification.
func (s *Session) Info() (arducam.Info, error) { return s.regs.Info() }

// ID is a random identifier for this session.
func (s *Session) ID() string { return s.id }

// Path returns the device node path.
func (s *Session) Path() string { return s.dev.Path() }

// Platform returns the detected platform name, empty if detection failed.
func (s *Session) Platform() string { return s.platform }

// Table returns the policy table chosen for the platform.
func (s *Session) Table() negotiate.Table { return s.table }

// Close releases the device. Further device I/O returns ErrClosed.
func (s *Session) Close() error {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	metrics.DeleteDevice(s.dev.Path())
	s.logger.Info("Camera session closed", "session", s.id)
	return s.dev.Close()
}

func fourCC(pixelFormat uint32) string {
	if pixelFormat == 0 {
		return ""
	}
	return v4l2.FormatFourCC(pixelFormat)
}
