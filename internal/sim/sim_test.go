package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisfit/axisfit-service/internal/models"
)

func newTestSim() *Simulator {
	return New(Config{RateHz: 50, MaxSeconds: 120, Seed: 42, StartMillis: 1_000_000})
}

func TestSimulator_AdvanceGeneratesAtNominalRate(t *testing.T) {
	s := newTestSim()

	// 10 s at 50 Hz yields 500 frames, two device samples each
	s.Advance(1_010_000)
	samples := s.SamplesSince(0, 0)
	assert.Len(t, samples, 1000)

	// Advancing to the same instant adds nothing
	s.Advance(1_010_000)
	assert.Len(t, s.SamplesSince(0, 0), 1000)
}

func TestSimulator_PairsShareHostTime(t *testing.T) {
	s := newTestSim()
	s.Advance(1_001_000)

	samples := s.SamplesSince(0, 0)
	require.NotEmpty(t, samples)
	require.Equal(t, 0, len(samples)%2)

	for i := 0; i < len(samples); i += 2 {
		assert.Equal(t, models.DeviceThoracic, samples[i].DeviceID)
		assert.Equal(t, models.DeviceLumbar, samples[i+1].DeviceID)
		assert.Equal(t, samples[i].HostRecvMillis, samples[i+1].HostRecvMillis)
	}
}

func TestSimulator_DeviceClocksDiffer(t *testing.T) {
	s := newTestSim()
	s.Advance(1_005_000)

	thor, lum, ok := s.Latest()
	require.True(t, ok)

	// Each device runs its own clock: offset from host within the drawn
	// range plus accumulated drift.
	rel := thor.HostRecvMillis - 1_000_000
	assert.InDelta(t, rel, thor.DeviceTSMillis, clockOffsetRangeMillis+5)
	assert.InDelta(t, rel, lum.DeviceTSMillis, clockOffsetRangeMillis+5)
	assert.NotEqual(t, thor.DeviceTSMillis, lum.DeviceTSMillis)
}

func TestSimulator_AnglesAreFiniteAndPlausible(t *testing.T) {
	s := newTestSim()
	s.Advance(1_060_000)

	for _, sample := range s.SamplesSince(0, 0) {
		for _, v := range []float64{sample.Angles.Pitch, sample.Angles.Roll, sample.Angles.Yaw} {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		// Sinusoids, bias, episodes and artifacts stay well inside
		// anatomically possible ranges.
		assert.Less(t, math.Abs(sample.Angles.Pitch), 90.0)
		assert.Less(t, math.Abs(sample.Angles.Roll), 90.0)
	}
}

func TestSimulator_SamplesSinceCursor(t *testing.T) {
	s := newTestSim()
	s.Advance(1_002_000)

	first := s.SamplesSince(0, 0)
	require.NotEmpty(t, first)
	cursor := int64(first[len(first)-1].HostRecvMillis)

	// Nothing new at the same cursor
	assert.Empty(t, s.SamplesSince(cursor, 0))

	s.Advance(1_003_000)
	more := s.SamplesSince(cursor, 0)
	require.NotEmpty(t, more)
	for _, sample := range more {
		assert.Greater(t, int64(sample.HostRecvMillis), cursor)
	}
}

func TestSimulator_MaxFramesCap(t *testing.T) {
	s := newTestSim()
	s.Advance(1_010_000)

	capped := s.SamplesSince(0, 5)
	assert.Len(t, capped, 10) // 5 frames, two samples each
}

func TestSimulator_RingBufferTrims(t *testing.T) {
	s := New(Config{RateHz: 50, MaxSeconds: 2, Seed: 7, StartMillis: 0})
	s.Advance(10_000)

	samples := s.SamplesSince(0, 0)
	require.NotEmpty(t, samples)
	// Only the last ~2 s are retained
	assert.LessOrEqual(t, len(samples), 2*2*50+4)
	assert.GreaterOrEqual(t, int64(samples[0].HostRecvMillis), int64(8000))
}

func TestSimulator_SeededRunsAreReproducible(t *testing.T) {
	a := newTestSim()
	b := newTestSim()
	a.Advance(1_005_000)
	b.Advance(1_005_000)

	sa := a.SamplesSince(0, 0)
	sb := b.SamplesSince(0, 0)
	require.Equal(t, len(sa), len(sb))
	for i := range sa {
		assert.Equal(t, sa[i], sb[i])
	}
}

func TestSimulator_ResetClearsBuffer(t *testing.T) {
	s := newTestSim()
	s.Advance(1_005_000)
	require.NotEmpty(t, s.SamplesSince(0, 0))

	s.Reset()
	assert.Empty(t, s.SamplesSince(0, 0))
	_, _, ok := s.Latest()
	assert.False(t, ok)
}
