// Package posture classifies segment angles into risk zones, tracks the
// inter-segment compensation index, and scores completed sessions.
package posture

import (
	"errors"
	"fmt"

	"github.com/axisfit/axisfit-service/internal/models"
)

// ErrInvalidThresholds is returned when a threshold block is degenerate
// (non-positive bounds or a green boundary above the yellow one).
var ErrInvalidThresholds = errors.New("invalid posture thresholds")

// SegmentThresholds are the green/yellow boundary magnitudes for one segment,
// symmetric around zero.
type SegmentThresholds struct {
	PitchG float64 `json:"pitch_g"`
	PitchY float64 `json:"pitch_y"`
	RollG  float64 `json:"roll_g"`
	RollY  float64 `json:"roll_y"`
}

// ThresholdSet holds both segments' boundaries for one recording mode.
type ThresholdSet struct {
	Thoracic SegmentThresholds `json:"thor"`
	Lumbar   SegmentThresholds `json:"lum"`
}

// Conservative daily-life boundaries; training allows wider ranges.
var defaultThresholds = map[string]ThresholdSet{
	models.ModeDesk: {
		Thoracic: SegmentThresholds{PitchG: 8, PitchY: 15, RollG: 7, RollY: 12},
		Lumbar:   SegmentThresholds{PitchG: 10, PitchY: 18, RollG: 7, RollY: 12},
	},
	models.ModeTrain: {
		Thoracic: SegmentThresholds{PitchG: 12, PitchY: 20, RollG: 10, RollY: 16},
		Lumbar:   SegmentThresholds{PitchG: 14, PitchY: 24, RollG: 10, RollY: 16},
	},
}

// DefaultThresholds returns the system defaults for a mode. Unknown modes
// fall back to desk.
func DefaultThresholds(mode string) ThresholdSet {
	ts, ok := defaultThresholds[mode]
	if !ok {
		ts = defaultThresholds[models.ModeDesk]
	}
	return ts
}

// SegmentPatch is a partial per-user override of one segment's boundaries.
// Only non-nil fields replace the default.
type SegmentPatch struct {
	PitchG *float64 `json:"pitch_g,omitempty"`
	PitchY *float64 `json:"pitch_y,omitempty"`
	RollG  *float64 `json:"roll_g,omitempty"`
	RollY  *float64 `json:"roll_y,omitempty"`
}

// ModePatch overrides one mode's threshold set, per segment.
type ModePatch struct {
	Thoracic *SegmentPatch `json:"thor,omitempty"`
	Lumbar   *SegmentPatch `json:"lum,omitempty"`
}

// UserPatch is the full per-user threshold override, keyed by mode.
type UserPatch struct {
	Desk  *ModePatch `json:"desk,omitempty"`
	Train *ModePatch `json:"train,omitempty"`
}

func applySegmentPatch(base SegmentThresholds, p *SegmentPatch) SegmentThresholds {
	if p == nil {
		return base
	}
	if p.PitchG != nil {
		base.PitchG = *p.PitchG
	}
	if p.PitchY != nil {
		base.PitchY = *p.PitchY
	}
	if p.RollG != nil {
		base.RollG = *p.RollG
	}
	if p.RollY != nil {
		base.RollY = *p.RollY
	}
	return base
}

// Merge applies a user patch for the given mode on top of a base set.
// The merge is shallow: listed fields replace defaults, the rest keep theirs.
func Merge(base ThresholdSet, patch *UserPatch, mode string) ThresholdSet {
	if patch == nil {
		return base
	}
	var mp *ModePatch
	switch mode {
	case models.ModeTrain:
		mp = patch.Train
	default:
		mp = patch.Desk
	}
	if mp == nil {
		return base
	}
	base.Thoracic = applySegmentPatch(base.Thoracic, mp.Thoracic)
	base.Lumbar = applySegmentPatch(base.Lumbar, mp.Lumbar)
	return base
}

// adjustForSport widens the boundaries slightly for crossfit, where larger
// excursions are expected form.
func adjustForSport(ts ThresholdSet, sport string) ThresholdSet {
	if sport != models.SportCrossfit {
		return ts
	}
	ts.Thoracic.PitchG += 1.5
	ts.Thoracic.RollG += 1.0
	ts.Thoracic.PitchY += 2.0
	ts.Thoracic.RollY += 1.5
	ts.Lumbar.PitchG += 1.5
	ts.Lumbar.RollG += 1.0
	ts.Lumbar.PitchY += 2.0
	ts.Lumbar.RollY += 1.5
	return ts
}

// ForContext resolves the effective threshold set for a recording: mode
// defaults, sport adjustment, then the user's override merged on top.
func ForContext(mode, sport string, patch *UserPatch) ThresholdSet {
	ts := adjustForSport(DefaultThresholds(mode), sport)
	return Merge(ts, patch, mode)
}

func validateSegment(name string, s SegmentThresholds) error {
	if s.PitchG <= 0 || s.PitchY <= 0 || s.RollG <= 0 || s.RollY <= 0 {
		return fmt.Errorf("%w: %s boundaries must be positive", ErrInvalidThresholds, name)
	}
	if s.PitchG > s.PitchY || s.RollG > s.RollY {
		return fmt.Errorf("%w: %s green boundary above yellow", ErrInvalidThresholds, name)
	}
	return nil
}

// Validate checks the invariant pitch_g ≤ pitch_y and roll_g ≤ roll_y with
// positive bounds; a violating set would make classification degenerate.
func (t ThresholdSet) Validate() error {
	if err := validateSegment("thoracic", t.Thoracic); err != nil {
		return err
	}
	return validateSegment("lumbar", t.Lumbar)
}
