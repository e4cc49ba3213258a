package api

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"

	"github.com/smazurov/mipicam/internal/api/models"
	"github.com/smazurov/mipicam/internal/arducam"
	"github.com/smazurov/mipicam/internal/capture"
	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

type fakeCamera struct {
	decision   negotiate.Decision
	refreshed  negotiate.Decision
	refreshErr error
	refreshes  int
	formats    []v4l2.FormatInfo
	sizes      map[uint32][]v4l2.Resolution
	infoErr    error
}

func (c *fakeCamera) ID() string                   { return "3f1c" }
func (c *fakeCamera) Path() string                 { return "/dev/video0" }
func (c *fakeCamera) Platform() string             { return "NVIDIA Jetson Xavier NX Developer Kit" }
func (c *fakeCamera) Table() negotiate.Table       { return negotiate.ExtendedTable() }
func (c *fakeCamera) Decision() negotiate.Decision { return c.decision }
func (c *fakeCamera) PreferredFormat() uint32      { return v4l2.PixFmtSRGGB10 }

func (c *fakeCamera) Refresh(context.Context) (negotiate.Decision, error) {
	c.refreshes++
	if c.refreshErr != nil {
		return negotiate.Decision{}, c.refreshErr
	}
	c.decision = c.refreshed
	return c.decision, nil
}

func (c *fakeCamera) Formats() ([]v4l2.FormatInfo, error) { return c.formats, nil }

func (c *fakeCamera) FrameSizes(pf uint32) ([]v4l2.Resolution, error) {
	return c.sizes[pf], nil
}

func (c *fakeCamera) Format() (v4l2.PixFormat, error) {
	return v4l2.PixFormat{Width: 4032, Height: 3040, PixelFormat: v4l2.PixFmtSRGGB10, BytesPerLine: 8064}, nil
}

func (c *fakeCamera) Capability() (v4l2.DeviceInfo, error) {
	return v4l2.DeviceInfo{DeviceName: "vi-output, arducam-csi2 9-000c", Driver: "tegra-video", Caps: 0x84200001}, nil
}

func (c *fakeCamera) Info() (arducam.Info, error) {
	if c.infoErr != nil {
		return arducam.Info{}, c.infoErr
	}
	return arducam.Info{FirmwareVersion: 3, SensorID: 0x0477, SerialNumber: 0xCAFE}, nil
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{
		decision: negotiate.Decision{
			Policy:      convert.Policy{BitDepth: 16, ColorCode: convert.ColorBayerBG2BGR},
			PixelFormat: v4l2.PixFmtSRGGB10,
			Source:      negotiate.SourceSingle,
			Table:       "xavier_nx",
			Candidates: []negotiate.Candidate{{
				PixelFormat: v4l2.PixFmtSRGGB10,
				Description: "10-bit Bayer RGRG/GBGB",
				Policy:      convert.Policy{BitDepth: 16, ColorCode: convert.ColorBayerBG2BGR},
			}},
		},
		refreshed: negotiate.Decision{Policy: convert.AutoRGB, Source: negotiate.SourceFallback, Table: "xavier_nx"},
		formats: []v4l2.FormatInfo{
			{Index: 0, PixelFormat: v4l2.PixFmtSRGGB10, Description: "10-bit Bayer RGRG/GBGB"},
			{Index: 1, PixelFormat: v4l2.PixFmtSRGGB8, Description: "8-bit Bayer RGRG/GBGB"},
			{Index: 2, PixelFormat: v4l2.PixFmtYUYV, Description: "YUYV 4:2:2"},
		},
		sizes: map[uint32][]v4l2.Resolution{
			v4l2.PixFmtY16: {{Width: 4032, Height: 3040}, {Width: 1920, Height: 1080}},
		},
	}
}

func do(t *testing.T, h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndVersion(t *testing.T) {
	h := NewServer(&Options{Camera: newFakeCamera()}).Handler()

	rec := do(t, h, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if body := decode[models.HealthData](t, rec); body.Status != "ok" {
		t.Errorf("health = %+v", body)
	}

	rec = do(t, h, http.MethodGet, "/api/version")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_version") {
		t.Errorf("version = %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewServerSchemaNames(t *testing.T) {
	s := NewServer(&Options{Camera: newFakeCamera()})

	schemas := s.GetAPI().OpenAPI().Components.Schemas.Map()
	for _, name := range []string{"Info", "FirmwareInfo", "DeviceData", "PolicyData"} {
		if _, ok := schemas[name]; !ok {
			t.Errorf("schema %q not registered", name)
		}
	}

	for _, path := range []string{"/api/device", "/api/formats", "/api/policy", "/api/version"} {
		if rec := do(t, s.Handler(), http.MethodGet, path); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
}

func TestGetDevice(t *testing.T) {
	h := NewServer(&Options{Camera: newFakeCamera()}).Handler()

	rec := do(t, h, http.MethodGet, "/api/device")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[models.DeviceData](t, rec)
	if body.Driver != "tegra-video" || body.ActiveFormat.PixelFormat != "RG10" {
		t.Errorf("device = %+v", body)
	}
	if body.ActiveFormat.FormatName != "V4L2_PIX_FMT_SRGGB10" {
		t.Errorf("format name = %q", body.ActiveFormat.FormatName)
	}
	want := []string{"Video Capture", "Extended Pix Format", "Streaming", "Device Capabilities"}
	if strings.Join(body.Capabilities, ",") != strings.Join(want, ",") {
		t.Errorf("capabilities = %v, want %v", body.Capabilities, want)
	}
	if body.Firmware == nil || body.Firmware.SensorID != 0x0477 {
		t.Errorf("firmware = %+v", body.Firmware)
	}
	if body.Firmware != nil && body.Firmware.SerialHex != "0x0000CAFE" {
		t.Errorf("serial_hex = %q", body.Firmware.SerialHex)
	}
}

func TestGetDeviceFirmwareUnavailable(t *testing.T) {
	cam := newFakeCamera()
	cam.infoErr = &v4l2.DeviceIOError{Op: "VIDIOC_R_DEV", Errno: syscall.ENOTTY}
	rec := do(t, NewServer(&Options{Camera: cam}).Handler(), http.MethodGet, "/api/device")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[models.DeviceData](t, rec)
	if body.Firmware != nil || body.FirmwareError == "" {
		t.Errorf("firmware = %+v, error = %q", body.Firmware, body.FirmwareError)
	}
}

func TestListFormats(t *testing.T) {
	rec := do(t, NewServer(&Options{Camera: newFakeCamera()}).Handler(), http.MethodGet, "/api/formats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[models.FormatsData](t, rec)
	if body.Count != 3 {
		t.Fatalf("count = %d", body.Count)
	}
	covered := []bool{true, true, false}
	for i, f := range body.Formats {
		if f.HasPolicy != covered[i] {
			t.Errorf("%s has_policy = %v, want %v", f.PixelFormat, f.HasPolicy, covered[i])
		}
	}
}

func TestListFrameSizes(t *testing.T) {
	h := NewServer(&Options{Camera: newFakeCamera()}).Handler()

	rec := do(t, h, http.MethodGet, "/api/formats/Y16/sizes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[models.FrameSizesData](t, rec)
	if body.Count != 2 || body.Sizes[0].Width != 4032 || body.PixelFormat != "Y16 " {
		t.Errorf("sizes = %+v", body)
	}

	rec = do(t, h, http.MethodGet, "/api/formats/TOOLONG/sizes")
	if rec.Code < 400 || rec.Code >= 500 {
		t.Errorf("invalid fourcc status = %d, want 4xx", rec.Code)
	}
}

func TestPolicyRoutes(t *testing.T) {
	cam := newFakeCamera()
	h := NewServer(&Options{Camera: cam}).Handler()

	rec := do(t, h, http.MethodGet, "/api/policy")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[models.PolicyData](t, rec)
	if body.Source != "single_candidate" || body.Policy.BitDepth != 16 || body.Policy.ColorName != "BayerBG2BGR" {
		t.Errorf("policy = %+v", body)
	}
	if len(body.Candidates) != 1 || body.PreferredFormat != "RG10" {
		t.Errorf("candidates = %+v, preferred = %q", body.Candidates, body.PreferredFormat)
	}

	rec = do(t, h, http.MethodPost, "/api/policy/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	body = decode[models.PolicyData](t, rec)
	if cam.refreshes != 1 || !body.Policy.PassThrough || body.PixelFormat != "" {
		t.Errorf("refresh = %+v after %d calls", body, cam.refreshes)
	}

	cam.refreshErr = errors.New("enumerate formats: VIDIOC_ENUM_FMT: input/output error")
	rec = do(t, h, http.MethodPost, "/api/policy/refresh")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failed refresh status = %d", rec.Code)
	}
}

func TestSnapshot(t *testing.T) {
	latest := &capture.Latest{}
	h := NewServer(&Options{Camera: newFakeCamera(), Latest: latest}).Handler()

	rec := do(t, h, http.MethodGet, "/api/snapshot")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("empty snapshot status = %d", rec.Code)
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	latest.Store(img)

	rec = do(t, h, http.MethodGet, "/api/snapshot?format=png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Frame-Sequence") != "1" {
		t.Errorf("sequence = %q", rec.Header().Get("X-Frame-Sequence"))
	}
	if _, format, err := image.Decode(rec.Body); err != nil || format != "png" {
		t.Errorf("decode = %q, %v", format, err)
	}
}

func TestSnapshotWithoutCapture(t *testing.T) {
	rec := do(t, NewServer(&Options{Camera: newFakeCamera()}).Handler(), http.MethodGet, "/api/snapshot")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	h := NewServer(&Options{Camera: newFakeCamera(), AuthUsername: "admin", AuthPassword: "secret"}).Handler()

	if rec := do(t, h, http.MethodGet, "/api/health"); rec.Code != http.StatusOK {
		t.Errorf("health without auth = %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/api/policy")
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") == "" {
		t.Errorf("policy without auth = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/policy", "Authorization", "Basic YWRtaW46d3Jvbmc="); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/policy", "Authorization", "Basic YWRtaW46c2VjcmV0"); rec.Code != http.StatusOK {
		t.Errorf("valid credentials = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := do(t, NewServer(&Options{Camera: newFakeCamera()}).Handler(), http.MethodOptions, "/api/policy/refresh")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "GET, POST, OPTIONS" {
		t.Errorf("allow methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("mipicam_capture_frames_total 0\n"))
	})
	rec := do(t, NewServer(&Options{Camera: newFakeCamera(), PrometheusHandler: handler}).Handler(), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "mipicam_capture_frames_total") {
		t.Errorf("metrics = %d %q", rec.Code, rec.Body.String())
	}
}

func TestParseBasicAuth(t *testing.T) {
	tests := []struct {
		header     string
		user, pass string
		ok         bool
	}{
		{"Basic YWRtaW46c2VjcmV0", "admin", "secret", true},
		{"Bearer token", "", "", false},
		{"Basic !!!", "", "", false},
		{"Basic YWRtaW4=", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			user, pass, ok := parseBasicAuth(tt.header)
			if ok != tt.ok || (ok && (user != tt.user || pass != tt.pass)) {
				t.Errorf("parseBasicAuth(%q) = %q, %q, %v", tt.header, user, pass, ok)
			}
		})
	}
}
