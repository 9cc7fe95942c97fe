package clocksync

import (
	"github.com/axisfit/axisfit-service/internal/models"
)

// DefaultMaxAgeMillis is how stale a device's last sample may be before
// fusion refuses to use it.
const DefaultMaxAgeMillis = 250

type heldSample struct {
	hostTSMillis   float64
	deviceTSMillis float64
	angles         models.SegmentAngles
	valid          bool
}

// FusedSample is the pair of segment readings picked for one host instant,
// along with each device's own timestamp for the held sample.
type FusedSample struct {
	Thoracic        models.SegmentAngles
	Lumbar          models.SegmentAngles
	ThorIMUTSMillis int64
	LumIMUTSMillis  int64
}

// DualAligner fuses the thoracic and lumbar streams onto the host timeline by
// sample-and-hold: it keeps at most one "last seen" sample per device, no
// queueing and no interpolation.
type DualAligner struct {
	maxAgeMillis float64
	thor         heldSample
	lum          heldSample
}

// NewDualAligner creates an aligner with the given staleness bound in
// milliseconds. Non-positive selects the default.
func NewDualAligner(maxAgeMillis float64) *DualAligner {
	if maxAgeMillis <= 0 {
		maxAgeMillis = DefaultMaxAgeMillis
	}
	return &DualAligner{maxAgeMillis: maxAgeMillis}
}

// Push overwrites the device's last sample. Samples whose host timestamp goes
// backwards relative to what is already held are dropped; the fusion relies
// on non-decreasing host time per stream.
func (a *DualAligner) Push(deviceID string, hostTSMillis, deviceTSMillis float64, angles models.SegmentAngles) {
	var slot *heldSample
	switch deviceID {
	case models.DeviceThoracic:
		slot = &a.thor
	case models.DeviceLumbar:
		slot = &a.lum
	default:
		return
	}
	if slot.valid && hostTSMillis < slot.hostTSMillis {
		return
	}
	*slot = heldSample{
		hostTSMillis:   hostTSMillis,
		deviceTSMillis: deviceTSMillis,
		angles:         angles,
		valid:          true,
	}
}

// FusedAt returns both segments' most recent samples for the given host
// instant. ok is false when either device has never pushed or its last sample
// is older than the staleness bound; callers skip that tick.
func (a *DualAligner) FusedAt(hostTSMillis float64) (FusedSample, bool) {
	if !a.fresh(a.thor, hostTSMillis) || !a.fresh(a.lum, hostTSMillis) {
		return FusedSample{}, false
	}
	return FusedSample{
		Thoracic:        a.thor.angles,
		Lumbar:          a.lum.angles,
		ThorIMUTSMillis: int64(a.thor.deviceTSMillis),
		LumIMUTSMillis:  int64(a.lum.deviceTSMillis),
	}, true
}

func (a *DualAligner) fresh(s heldSample, hostTSMillis float64) bool {
	return s.valid && hostTSMillis-s.hostTSMillis <= a.maxAgeMillis
}

// Reset forgets both devices' last samples.
func (a *DualAligner) Reset() {
	a.thor = heldSample{}
	a.lum = heldSample{}
}
