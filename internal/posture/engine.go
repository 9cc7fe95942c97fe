package posture

import (
	"math"

	"github.com/axisfit/axisfit-service/internal/models"
)

// Engine tuning defaults.
const (
	DefaultSampleRateHz      = 50.0
	DefaultCompWindowSeconds = 10.0
	DefaultCompScaleDeg      = 25.0
)

// EngineConfig tunes the compensation window.
type EngineConfig struct {
	SampleRateHz      float64
	CompWindowSeconds float64
	// CompScaleDeg maps degrees of inter-segment discrepancy onto the
	// 0..100 compensation scale.
	CompScaleDeg float64
}

func (c *EngineConfig) applyDefaults() {
	if c.SampleRateHz <= 0 {
		c.SampleRateHz = DefaultSampleRateHz
	}
	if c.CompWindowSeconds <= 0 {
		c.CompWindowSeconds = DefaultCompWindowSeconds
	}
	if c.CompScaleDeg <= 0 {
		c.CompScaleDeg = DefaultCompScaleDeg
	}
}

// Engine is the stateful half of posture annotation: it keeps the rolling
// window of raw inter-segment pitch discrepancies behind the compensation
// index. One engine belongs to one recording; Reset before reuse.
type Engine struct {
	cfg EngineConfig

	window []float64
	idx    int
	n      int
	sum    float64
}

// NewEngine creates an engine; zero-valued config fields take the defaults.
func NewEngine(cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	size := int(math.Round(cfg.SampleRateHz * cfg.CompWindowSeconds))
	if size < 1 {
		size = 1
	}
	return &Engine{cfg: cfg, window: make([]float64, size)}
}

// compIndex pushes one raw discrepancy into the window and returns the
// windowed compensation index clamped to 0..100.
func (e *Engine) compIndex(rawDeg float64) float64 {
	if e.n == len(e.window) {
		e.sum -= e.window[e.idx]
	} else {
		e.n++
	}
	e.window[e.idx] = rawDeg
	e.sum += rawDeg
	e.idx = (e.idx + 1) % len(e.window)

	mean := e.sum / float64(e.n)
	return clamp(mean/e.cfg.CompScaleDeg*100.0, 0.0, 100.0)
}

// Annotate classifies both segments and updates the compensation window,
// producing the fused sample row for one host instant.
func (e *Engine) Annotate(tsMillis int64, thor, lum models.SegmentAngles, thr ThresholdSet) models.AnnotatedSample {
	comp := e.compIndex(math.Abs(lum.Pitch - thor.Pitch))
	return models.AnnotatedSample{
		TSMillis:  tsMillis,
		ThorPitch: thor.Pitch,
		ThorRoll:  thor.Roll,
		ThorYaw:   thor.Yaw,
		LumPitch:  lum.Pitch,
		LumRoll:   lum.Roll,
		LumYaw:    lum.Yaw,
		ThorZone:  Classify(thor.Pitch, thor.Roll, thr.Thoracic),
		LumZone:   Classify(lum.Pitch, lum.Roll, thr.Lumbar),
		CompIndex: comp,
	}
}

// Reset clears the compensation window for a new recording.
func (e *Engine) Reset() {
	e.idx = 0
	e.n = 0
	e.sum = 0
	for i := range e.window {
		e.window[i] = 0
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
