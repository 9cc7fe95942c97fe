package clocksync

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatorWarmupIsOffsetOnly(t *testing.T) {
	e := NewEstimator(0, 0)

	// Fewer than minPoints pairs: slope pinned at 1, intercept from the
	// latest pair.
	var p SyncParams
	for i := 0; i < DefaultMinPoints-1; i++ {
		device := float64(i * 20)
		host := device + 500.0
		p = e.Update(device, host)
	}

	assert.Equal(t, 1.0, p.Slope)
	assert.InDelta(t, 500.0, p.Intercept, 1e-9)
}

func TestEstimatorConvergesToTrueMapping(t *testing.T) {
	trueSlopes := []float64{0.96, 0.99, 1.0, 1.02, 1.04}
	rng := rand.New(rand.NewSource(7))

	for _, slope := range trueSlopes {
		e := NewEstimator(200, 12)
		intercept := 1234.5

		// 100 pairs at 50 Hz with ~1ms arrival jitter.
		for i := 0; i < 100; i++ {
			device := float64(i) * 20.0
			host := slope*device + intercept + rng.NormFloat64()
			e.Update(device, host)
		}

		p := e.Params()
		assert.InDelta(t, slope, p.Slope, 0.01, "slope for true=%v", slope)
		assert.InDelta(t, intercept, p.Intercept, 5.0, "intercept for true=%v", slope)
	}
}

func TestEstimatorIdentityRoundTrip(t *testing.T) {
	e := NewEstimator(200, 12)

	// Identical device/host pairs fit to the identity mapping.
	for i := 0; i < 50; i++ {
		ts := float64(i * 20)
		e.Update(ts, ts)
	}

	p := e.Params()
	require.InDelta(t, 1.0, p.Slope, 1e-9)
	require.InDelta(t, 0.0, p.Intercept, 1e-6)
	assert.InDelta(t, 12345.0, e.ToHostMillis(12345.0), 1e-6)
}

func TestEstimatorClampsSlope(t *testing.T) {
	e := NewEstimator(200, 12)

	// Device clock running 20% fast; the fit must stay within the
	// physical ±5% bound.
	for i := 0; i < 50; i++ {
		device := float64(i) * 20.0
		host := 1.20 * device
		e.Update(device, host)
	}

	assert.Equal(t, slopeMax, e.Params().Slope)
}

func TestEstimatorFrozenDeviceClock(t *testing.T) {
	e := NewEstimator(200, 12)

	// Device timestamp never advances: regression is degenerate, expect
	// offset-only fallback rather than NaN.
	for i := 0; i < 30; i++ {
		e.Update(1000.0, 5000.0+float64(i*20))
	}

	p := e.Params()
	assert.Equal(t, 1.0, p.Slope)
	assert.False(t, p.Intercept != p.Intercept, "intercept must not be NaN")
}

func TestEstimatorWindowEviction(t *testing.T) {
	e := NewEstimator(20, 4)

	// Early pairs follow one mapping, later pairs another. Once the early
	// pairs are evicted the fit should track only the recent mapping.
	for i := 0; i < 20; i++ {
		device := float64(i) * 20.0
		e.Update(device, device+100.0)
	}
	for i := 20; i < 60; i++ {
		device := float64(i) * 20.0
		e.Update(device, device+900.0)
	}

	p := e.Params()
	assert.InDelta(t, 1.0, p.Slope, 0.01)
	assert.InDelta(t, 900.0, p.Intercept, 5.0)
}

func TestEstimatorReset(t *testing.T) {
	e := NewEstimator(0, 0)
	for i := 0; i < 40; i++ {
		e.Update(float64(i*20), float64(i*20)+250)
	}
	e.Reset()

	p := e.Params()
	assert.Equal(t, 1.0, p.Slope)
	assert.Equal(t, 0.0, p.Intercept)
}
