package posture

import (
	"math"

	"github.com/axisfit/axisfit-service/internal/models"
)

// Classify maps one segment's pitch/roll onto a zone using symmetric
// boundaries around zero:
//
//	green  if |pitch| ≤ pitch_g and |roll| ≤ roll_g
//	yellow if |pitch| ≤ pitch_y and |roll| ≤ roll_y
//	red    otherwise
func Classify(pitch, roll float64, thr SegmentThresholds) models.Zone {
	ap := math.Abs(pitch)
	ar := math.Abs(roll)
	if ap <= thr.PitchG && ar <= thr.RollG {
		return models.ZoneGreen
	}
	if ap <= thr.PitchY && ar <= thr.RollY {
		return models.ZoneYellow
	}
	return models.ZoneRed
}
