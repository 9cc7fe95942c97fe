package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/axisfit/axisfit-service/internal/models"
)

func TestClassifyZeroDisplacementIsGreen(t *testing.T) {
	for _, mode := range []string{models.ModeDesk, models.ModeTrain} {
		ts := DefaultThresholds(mode)
		assert.Equal(t, models.ZoneGreen, Classify(0, 0, ts.Thoracic), "mode=%s thor", mode)
		assert.Equal(t, models.ZoneGreen, Classify(0, 0, ts.Lumbar), "mode=%s lum", mode)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	thr := SegmentThresholds{PitchG: 8, PitchY: 15, RollG: 7, RollY: 12}

	tests := []struct {
		name        string
		pitch, roll float64
		want        models.Zone
	}{
		{"well inside green", 3, 2, models.ZoneGreen},
		{"pitch exactly at green bound", 8, 0, models.ZoneGreen},
		{"pitch just past green", 8.01, 0, models.ZoneYellow},
		{"pitch exactly at yellow bound", 15, 0, models.ZoneYellow},
		{"pitch past yellow", 15.01, 0, models.ZoneRed},
		{"roll pushes into yellow", 0, 9, models.ZoneYellow},
		{"roll pushes into red", 0, 13, models.ZoneRed},
		{"negative pitch symmetric", -20, 0, models.ZoneRed},
		{"green pitch but red roll", 2, 40, models.ZoneRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.pitch, tt.roll, thr))
		})
	}
}

func TestClassifyMonotonicInPitch(t *testing.T) {
	thr := SegmentThresholds{PitchG: 8, PitchY: 15, RollG: 7, RollY: 12}

	prev := -1
	for pitch := 0.0; pitch <= 30.0; pitch += 0.25 {
		z := Classify(pitch, 0, thr)
		sev := z.Severity()
		assert.GreaterOrEqual(t, sev, prev, "zone regressed at pitch=%v", pitch)
		prev = sev
	}
	assert.Equal(t, models.ZoneRed.Severity(), prev)
}
