// Package metrics provides Prometheus metrics for capture sessions.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mipicam",
		Subsystem: "capture",
		Name:      "frames_total",
		Help:      "Frames captured and converted",
	}, []string{"device"})

	captureTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mipicam",
		Subsystem: "capture",
		Name:      "timeouts_total",
		Help:      "Frame waits that expired",
	}, []string{"device"})

	captureFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mipicam",
		Subsystem: "capture",
		Name:      "fps",
		Help:      "Average capture frames per second",
	}, []string{"device"})

	convertDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mipicam",
		Subsystem: "convert",
		Name:      "duration_seconds",
		Help:      "Time spent converting one frame",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}, []string{"device"})

	policyInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mipicam",
		Subsystem: "negotiate",
		Name:      "policy_info",
		Help:      "Active conversion policy, value is always 1",
	}, []string{"device", "pixel_format", "table", "source", "bit_depth", "color_code", "pass_through"})

	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mipicam",
		Subsystem: "negotiate",
		Name:      "refreshes_total",
		Help:      "Policy resolutions by outcome",
	}, []string{"device", "result"})

	// Local cache for API access.
	cache   = make(map[string]*CaptureMetrics)
	cacheMu sync.RWMutex
)

// CaptureMetrics holds current metric values for a device.
type CaptureMetrics struct {
	Frames   int
	Timeouts int
	FPS      float64
}

// PolicyLabels describes the active policy for the policy_info gauge.
type PolicyLabels struct {
	PixelFormat string
	Table       string
	Source      string
	BitDepth    int
	ColorCode   int
	PassThrough bool
}

// RecordFrame counts one converted frame and its conversion time.
func RecordFrame(device string, convert time.Duration) {
	framesTotal.WithLabelValues(device).Inc()
	convertDuration.WithLabelValues(device).Observe(convert.Seconds())
	updateCache(device, func(m *CaptureMetrics) { m.Frames++ })
}

// RecordTimeout counts one expired frame wait.
func RecordTimeout(device string) {
	captureTimeouts.WithLabelValues(device).Inc()
	updateCache(device, func(m *CaptureMetrics) { m.Timeouts++ })
}

// SetFPS sets the average capture rate.
func SetFPS(device string, fps float64) {
	captureFPS.WithLabelValues(device).Set(fps)
	updateCache(device, func(m *CaptureMetrics) { m.FPS = fps })
}

// SetPolicy replaces the policy_info series for device.
func SetPolicy(device string, p PolicyLabels) {
	policyInfo.DeletePartialMatch(prometheus.Labels{"device": device})
	policyInfo.WithLabelValues(device, p.PixelFormat, p.Table, p.Source,
		strconv.Itoa(p.BitDepth), strconv.Itoa(p.ColorCode), strconv.FormatBool(p.PassThrough)).Set(1)
}

// RecordRefresh counts a policy resolution attempt.
func RecordRefresh(device string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	refreshes.WithLabelValues(device, result).Inc()
}

// DeleteDevice removes all series for device.
func DeleteDevice(device string) {
	labels := prometheus.Labels{"device": device}
	framesTotal.DeletePartialMatch(labels)
	captureTimeouts.DeletePartialMatch(labels)
	captureFPS.DeletePartialMatch(labels)
	convertDuration.DeletePartialMatch(labels)
	policyInfo.DeletePartialMatch(labels)
	refreshes.DeletePartialMatch(labels)

	cacheMu.Lock()
	delete(cache, device)
	cacheMu.Unlock()
}

// GetCaptureMetrics returns current metric values for a device.
func GetCaptureMetrics(device string) *CaptureMetrics {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	if m, ok := cache[device]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func updateCache(device string, update func(*CaptureMetrics)) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	m, ok := cache[device]
	if !ok {
		m = &CaptureMetrics{}
		cache[device] = m
	}
	update(m)
}
