// Package sim generates a realistic dual-IMU stream for the live monitor:
// two body segments with independent sensor clocks, slow postural sinusoids,
// bias, noise, bad-posture episodes and motion artifacts.
package sim

import (
	"math"
	"math/rand"
	"sync"

	"github.com/axisfit/axisfit-service/internal/models"
)

// Clock characteristics per simulated IMU. Offsets and drift are drawn once
// per run so the clock sync layer has something real to estimate.
const (
	clockOffsetRangeMillis = 150.0 // uniform ±
	clockDriftRangePPM     = 80.0  // uniform ±
)

// Config tunes the simulated stream.
type Config struct {
	RateHz      float64
	MaxSeconds  float64 // ring buffer retention
	Seed        int64
	StartMillis int64 // host epoch of the first sample
}

func (c *Config) applyDefaults() {
	if c.RateHz <= 0 {
		c.RateHz = 50
	}
	if c.MaxSeconds <= 0 {
		c.MaxSeconds = 120
	}
}

// framePair is one simulated instant: both devices sampled on the same host
// arrival time but stamped with their own clocks.
type framePair struct {
	hostMillis int64
	thor       models.DeviceSample
	lum        models.DeviceSample
}

// Simulator produces device samples on demand. Time never advances on its
// own; callers drive it with Advance, which keeps tests deterministic.
type Simulator struct {
	mu  sync.Mutex
	cfg Config
	rng *rand.Rand

	lastRelS float64

	phiT, phiL, phi2     float64
	yawDriftT, yawDriftL float64
	thorPitchBias        float64
	thorRollBias         float64
	lumPitchBias         float64
	lumRollBias          float64

	badThorUntil float64
	badLumUntil  float64

	offsetThorMillis float64
	offsetLumMillis  float64
	driftThor        float64
	driftLum         float64

	buf []framePair
}

// New creates a simulator. A zero seed gives a different run each time; tests
// pass a fixed seed for reproducibility.
func New(cfg Config) *Simulator {
	cfg.applyDefaults()
	s := &Simulator{cfg: cfg}
	if cfg.Seed != 0 {
		s.rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		s.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	s.resetLocked()
	return s
}

func (s *Simulator) resetLocked() {
	s.lastRelS = 0
	s.buf = s.buf[:0]

	s.phiT = s.rng.Float64() * 2 * math.Pi
	s.phiL = s.rng.Float64() * 2 * math.Pi
	s.phi2 = s.rng.Float64() * 2 * math.Pi

	s.yawDriftT = s.uniform(-0.25, 0.25)
	s.yawDriftL = s.uniform(-0.25, 0.25)

	s.thorPitchBias = s.uniform(-1.5, 1.5)
	s.thorRollBias = s.uniform(-1.5, 1.5)
	s.lumPitchBias = s.uniform(-1.5, 1.5)
	s.lumRollBias = s.uniform(-1.5, 1.5)

	s.badThorUntil = 0
	s.badLumUntil = 0

	s.offsetThorMillis = s.uniform(-clockOffsetRangeMillis, clockOffsetRangeMillis)
	s.offsetLumMillis = s.uniform(-clockOffsetRangeMillis, clockOffsetRangeMillis)
	s.driftThor = 1.0 + s.uniform(-clockDriftRangePPM, clockDriftRangePPM)*1e-6
	s.driftLum = 1.0 + s.uniform(-clockDriftRangePPM, clockDriftRangePPM)*1e-6
}

// Reset restarts the run with fresh biases, episodes and device clocks.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Simulator) gauss(sigma float64) float64 {
	return s.rng.NormFloat64() * sigma
}

// Advance generates samples up to the given host time and trims the ring
// buffer to the retention window.
func (s *Simulator) Advance(toHostMillis int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := 1.0 / s.cfg.RateHz
	relEnd := float64(toHostMillis-s.cfg.StartMillis) / 1000.0
	for s.lastRelS+dt <= relEnd {
		s.lastRelS += dt
		s.buf = append(s.buf, s.generate(s.lastRelS))
	}

	cutoff := toHostMillis - int64(s.cfg.MaxSeconds*1000)
	trim := 0
	for trim < len(s.buf) && s.buf[trim].hostMillis < cutoff {
		trim++
	}
	if trim > 0 {
		s.buf = append(s.buf[:0], s.buf[trim:]...)
	}
}

// generate produces one simulated frame at relative time t (seconds).
func (s *Simulator) generate(t float64) framePair {
	// Slow postural movement frequencies
	const fThor = 0.10
	const fLum = 0.085

	thorPitch := 8.0*math.Sin(2*math.Pi*fThor*t+s.phiT) +
		2.5*math.Sin(2*math.Pi*0.03*t+s.phi2) + s.thorPitchBias
	thorRoll := 5.5*math.Sin(2*math.Pi*0.07*t+s.phi2) + s.thorRollBias
	thorYaw := s.yawDriftT*t + 6.0*math.Sin(2*math.Pi*0.05*t+s.phiT)

	// Positive lumbar pitch models extension
	lumPitch := 10.0*math.Sin(2*math.Pi*fLum*t+s.phiL) +
		3.0*math.Sin(2*math.Pi*0.028*t+s.phi2) + s.lumPitchBias
	lumRoll := 6.0*math.Sin(2*math.Pi*0.075*t+s.phiL) + s.lumRollBias
	lumYaw := s.yawDriftL*t + 5.0*math.Sin(2*math.Pi*0.045*t+s.phi2)

	// Bad-posture episodes: occasional sustained slouch or hyperextension
	if t > s.badThorUntil && s.rng.Float64() < 0.003 {
		s.badThorUntil = t + s.uniform(6.0, 18.0)
	}
	if t > s.badLumUntil && s.rng.Float64() < 0.003 {
		s.badLumUntil = t + s.uniform(6.0, 18.0)
	}
	if t < s.badThorUntil {
		thorPitch -= s.uniform(10.0, 18.0)
	}
	if t < s.badLumUntil {
		lumPitch += s.uniform(10.0, 20.0)
	}

	thorPitch += s.gauss(0.35)
	thorRoll += s.gauss(0.35)
	thorYaw += s.gauss(0.25)
	lumPitch += s.gauss(0.35)
	lumRoll += s.gauss(0.35)
	lumYaw += s.gauss(0.25)

	// Motion artifacts hit both segments at once
	if s.rng.Float64() < 0.006 {
		bump := s.sign() * s.uniform(6, 12)
		thorPitch += bump * 0.6
		lumPitch += bump
		thorRoll += s.sign() * s.uniform(3, 6)
		lumRoll += s.sign() * s.uniform(5, 10)
	}

	hostMillis := s.cfg.StartMillis + int64(t*1000.0)
	return framePair{
		hostMillis: hostMillis,
		thor: models.DeviceSample{
			DeviceID:       models.DeviceThoracic,
			DeviceTSMillis: t*1000.0*s.driftThor + s.offsetThorMillis,
			HostRecvMillis: float64(hostMillis),
			Angles:         models.SegmentAngles{Pitch: thorPitch, Roll: thorRoll, Yaw: thorYaw},
		},
		lum: models.DeviceSample{
			DeviceID:       models.DeviceLumbar,
			DeviceTSMillis: t*1000.0*s.driftLum + s.offsetLumMillis,
			HostRecvMillis: float64(hostMillis),
			Angles:         models.SegmentAngles{Pitch: lumPitch, Roll: lumRoll, Yaw: lumYaw},
		},
	}
}

func (s *Simulator) sign() float64 {
	if s.rng.Float64() < 0.5 {
		return -1
	}
	return 1
}

// SamplesSince returns device samples with host arrival strictly after the
// given time, thoracic before lumbar per instant, capped at maxFrames pairs.
// A zero since returns everything retained.
func (s *Simulator) SamplesSince(sinceHostMillis int64, maxFrames int) []models.DeviceSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxFrames <= 0 {
		maxFrames = 5000
	}

	var out []models.DeviceSample
	frames := 0
	for _, p := range s.buf {
		if p.hostMillis <= sinceHostMillis {
			continue
		}
		out = append(out, p.thor, p.lum)
		frames++
		if frames >= maxFrames {
			break
		}
	}
	return out
}

// Latest returns the most recent frame's two samples, or false when nothing
// has been generated yet.
func (s *Simulator) Latest() (thor, lum models.DeviceSample, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		return models.DeviceSample{}, models.DeviceSample{}, false
	}
	last := s.buf[len(s.buf)-1]
	return last.thor, last.lum, true
}
