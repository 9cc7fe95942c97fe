// Package models contains data models for the AxisFit posture service.
package models

// Zone is the posture risk classification for a single body segment.
type Zone string

const (
	ZoneGreen  Zone = "green"
	ZoneYellow Zone = "yellow"
	ZoneRed    Zone = "red"
)

// Severity orders zones from safest to riskiest (green < yellow < red).
func (z Zone) Severity() int {
	switch z {
	case ZoneYellow:
		return 1
	case ZoneRed:
		return 2
	default:
		return 0
	}
}

// Valid reports whether the zone is one of the three known values.
func (z Zone) Valid() bool {
	return z == ZoneGreen || z == ZoneYellow || z == ZoneRed
}

// Well-known device identifiers for the two tracked IMUs.
const (
	DeviceThoracic = "thoracic"
	DeviceLumbar   = "lumbar"
)

// SegmentAngles holds the orientation of one body segment in degrees.
type SegmentAngles struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// DeviceSample is a raw reading from one IMU, stamped with both the device's
// own clock and the host's arrival time. The two clocks are independent;
// clock synchronization maps device time onto the host timeline.
type DeviceSample struct {
	DeviceID       string        `json:"deviceId"`
	DeviceTSMillis float64       `json:"deviceTsMs"`
	HostRecvMillis float64       `json:"hostRecvMs"`
	Angles         SegmentAngles `json:"angles"`
}

// AnnotatedSample is one fused, classified posture sample on the host
// timeline. Produced once per fused instant and immutable afterwards.
type AnnotatedSample struct {
	TSMillis int64 `json:"ts_ms"`

	ThorPitch float64 `json:"T_pitch"`
	ThorRoll  float64 `json:"T_roll"`
	ThorYaw   float64 `json:"T_yaw"`
	LumPitch  float64 `json:"L_pitch"`
	LumRoll   float64 `json:"L_roll"`
	LumYaw    float64 `json:"L_yaw"`

	ThorZone  Zone    `json:"thor_zone"`
	LumZone   Zone    `json:"lum_zone"`
	CompIndex float64 `json:"comp_index"` // 0..100

	ThorIMUTSMillis int64 `json:"T_imu_ts_ms"`
	LumIMUTSMillis  int64 `json:"L_imu_ts_ms"`
}

// AggSample is a 1 Hz sample-and-hold downsample of the raw stream, kept so
// dashboards can chart long sessions without pulling 50 Hz rows.
type AggSample struct {
	TSSeconds int64   `json:"ts_s"`
	ThorPitch float64 `json:"T_pitch"`
	LumPitch  float64 `json:"L_pitch"`
	ThorZone  Zone    `json:"thor_zone"`
	LumZone   Zone    `json:"lum_zone"`
	CompIndex float64 `json:"comp_index"`
}
