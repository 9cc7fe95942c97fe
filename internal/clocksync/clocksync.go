// Package clocksync maps independently-clocked IMU timestamps onto the host
// timeline and fuses the two device streams into common sample instants.
//
// Each IMU reports time in its own base. The host records when each packet
// arrived, and a windowed least-squares fit of host ≈ slope·device + intercept
// corrects both offset and drift. Works the same for the simulator and for
// real hardware over BLE/serial.
package clocksync

// Default estimator tuning. An IMU crystal cannot realistically drift more
// than a few percent, so the slope is clamped to keep a noisy early fit from
// extrapolating wildly.
const (
	DefaultMaxPoints = 200
	DefaultMinPoints = 12

	slopeMin = 0.95
	slopeMax = 1.05

	// Below this variance of device timestamps the regression is
	// ill-conditioned (device clock appears frozen); fall back to offset.
	degenerateVariance = 1e-9
)

// SyncParams is the fitted linear mapping from device time to host time.
type SyncParams struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Estimator fits host = slope*device + intercept over a bounded FIFO window
// of (device_ts, host_ts) pairs. The full regression is recomputed from the
// window on every update; O(window) per call is fine at sensor rates.
type Estimator struct {
	device []float64
	host   []float64
	idx    int
	n      int

	minPoints int
	params    SyncParams
}

// NewEstimator creates an estimator with the given window capacity and
// warm-up point count. Non-positive arguments select the defaults.
func NewEstimator(maxPoints, minPoints int) *Estimator {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}
	if minPoints > maxPoints {
		minPoints = maxPoints
	}
	return &Estimator{
		device:    make([]float64, maxPoints),
		host:      make([]float64, maxPoints),
		minPoints: minPoints,
		params:    SyncParams{Slope: 1.0},
	}
}

// Update records a new (device_ts, host_ts) pair and refits the mapping.
// While fewer than minPoints pairs are available the estimate is offset-only
// from the most recent pair, with slope pinned at 1.
func (e *Estimator) Update(deviceTSMillis, hostTSMillis float64) SyncParams {
	e.device[e.idx] = deviceTSMillis
	e.host[e.idx] = hostTSMillis
	e.idx = (e.idx + 1) % len(e.device)
	if e.n < len(e.device) {
		e.n++
	}

	if e.n < e.minPoints {
		e.params = SyncParams{Slope: 1.0, Intercept: hostTSMillis - deviceTSMillis}
		return e.params
	}

	n := float64(e.n)
	var sumX, sumY float64
	for i := 0; i < e.n; i++ {
		sumX += e.device[i]
		sumY += e.host[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, sxy float64
	for i := 0; i < e.n; i++ {
		dx := e.device[i] - meanX
		sxx += dx * dx
		sxy += dx * (e.host[i] - meanY)
	}

	if sxx < degenerateVariance {
		// Device clock looks frozen; offset from window means.
		e.params = SyncParams{Slope: 1.0, Intercept: meanY - meanX}
		return e.params
	}

	slope := sxy / sxx
	if slope < slopeMin {
		slope = slopeMin
	} else if slope > slopeMax {
		slope = slopeMax
	}
	e.params = SyncParams{Slope: slope, Intercept: meanY - slope*meanX}
	return e.params
}

// Params returns the current fitted mapping.
func (e *Estimator) Params() SyncParams {
	return e.params
}

// ToHostMillis converts a device timestamp to host time using the current fit.
func (e *Estimator) ToHostMillis(deviceTSMillis float64) float64 {
	return e.params.Slope*deviceTSMillis + e.params.Intercept
}

// Reset discards the window and returns to the identity mapping.
func (e *Estimator) Reset() {
	e.idx = 0
	e.n = 0
	e.params = SyncParams{Slope: 1.0}
}
