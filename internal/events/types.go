package events

// Event type constants for kelindar/event.
const (
	TypePolicyResolved uint32 = iota + 1
	TypeCaptureStats
	TypeCaptureError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PolicyResolvedEvent is published whenever a session settles its
// conversion policy.
type PolicyResolvedEvent struct {
	SessionID   string `json:"session_id" doc:"Session identifier"`
	DevicePath  string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	PixelFormat string `json:"pixel_format" example:"RG10" doc:"Pixel format the policy applies to, empty for the fallback"`
	Table       string `json:"table" example:"xavier_nx" doc:"Policy table consulted"`
	Source      string `json:"source" example:"single_candidate" doc:"Rule that produced the policy"`
	BitDepth    int    `json:"bit_depth" example:"16" doc:"Sample depth rescaled from, -1 for none"`
	ColorCode   int    `json:"color_code" example:"46" doc:"Demosaic code, -1 for none"`
	PassThrough bool   `json:"pass_through" doc:"Frames are left untouched"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Resolution timestamp"`
}

// Type returns the event type identifier for PolicyResolvedEvent.
func (e PolicyResolvedEvent) Type() uint32 { return TypePolicyResolved }

// CaptureStatsEvent carries periodic throughput figures from the capture loop.
type CaptureStatsEvent struct {
	SessionID  string  `json:"session_id" doc:"Session identifier"`
	DevicePath string  `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Frames     int     `json:"frames" example:"300" doc:"Frames converted so far"`
	AvgFPS     float64 `json:"avg_fps" example:"59.9" doc:"Average frames per second"`
	AvgFrameMS float64 `json:"avg_frame_ms" example:"16.7" doc:"Average interval between frames in milliseconds"`
	Timeouts   int     `json:"timeouts" doc:"Waits that expired without a frame"`
	Timestamp  string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Sample timestamp"`
}

// Type returns the event type identifier for CaptureStatsEvent.
func (e CaptureStatsEvent) Type() uint32 { return TypeCaptureStats }

// CaptureErrorEvent reports a capture loop failure.
type CaptureErrorEvent struct {
	SessionID  string `json:"session_id" doc:"Session identifier"`
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	Error      string `json:"error" example:"VIDIOC_DQBUF: input/output error" doc:"Detailed error description"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Error timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }
