package posture

// Risk index weights. Lumbar hyperextension is treated as higher risk than
// thoracic flexion, hence the heavier lumbar weight.
const (
	riskWeightLumbar   = 0.45
	riskWeightThoracic = 0.35
	riskWeightComp     = 0.20
)

// RiskIndex combines session duration, red-zone dwell time per segment and
// average compensation into a single 0..100 score:
//
//	100 × clamp(0.45·lumRed/dur + 0.35·thorRed/dur + 0.20·compAvg/100, 0, 1)
//
// Each fraction is individually clamped to [0,1] before combination.
func RiskIndex(durationS, thorRedS, lumRedS, compAvg float64) float64 {
	dur := durationS
	if dur < 1e-6 {
		dur = 1e-6
	}
	thorFrac := clamp(thorRedS/dur, 0.0, 1.0)
	lumFrac := clamp(lumRedS/dur, 0.0, 1.0)
	compFrac := clamp(compAvg/100.0, 0.0, 1.0)

	risk := 100.0 * (riskWeightLumbar*lumFrac + riskWeightThoracic*thorFrac + riskWeightComp*compFrac)
	return clamp(risk, 0.0, 100.0)
}
