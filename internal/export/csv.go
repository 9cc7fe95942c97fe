// Package export renders session data as downloadable CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/axisfit/axisfit-service/internal/models"
)

// CSVContentType is the MIME type served with exports.
const CSVContentType = "text/csv"

// utf8BOM keeps Excel happy with accented characters.
const utf8BOM = "\uFEFF"

// rawHeader is the raw sample column order, fixed so exports stay stable
// across versions.
var rawHeader = []string{
	"ts_ms",
	"T_pitch", "T_roll", "T_yaw",
	"L_pitch", "L_roll", "L_yaw",
	"thor_zone", "lum_zone", "comp_index",
	"T_imu_ts_ms", "L_imu_ts_ms",
}

// Filename builds a consistent export name: <prefix>_<YYYYMMDD_HHMMSS>[_<suffix>].<ext>
func Filename(prefix, ext string, at time.Time, suffix string) string {
	prefix = strings.ReplaceAll(strings.TrimSpace(prefix), " ", "_")
	if prefix == "" {
		prefix = "export"
	}
	parts := []string{prefix, at.Format("20060102_150405")}
	if suffix = strings.ReplaceAll(strings.TrimSpace(suffix), " ", "_"); suffix != "" {
		parts = append(parts, suffix)
	}
	name := strings.Join(parts, "_")
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		name += "." + ext
	}
	return name
}

// WriteSessionCSV streams a session's raw samples as CSV, BOM first.
func WriteSessionCSV(w io.Writer, rows []models.AnnotatedSample) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(rawHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(rawHeader))
	for _, r := range rows {
		record[0] = strconv.FormatInt(r.TSMillis, 10)
		record[1] = formatAngle(r.ThorPitch)
		record[2] = formatAngle(r.ThorRoll)
		record[3] = formatAngle(r.ThorYaw)
		record[4] = formatAngle(r.LumPitch)
		record[5] = formatAngle(r.LumRoll)
		record[6] = formatAngle(r.LumYaw)
		record[7] = string(r.ThorZone)
		record[8] = string(r.LumZone)
		record[9] = formatAngle(r.CompIndex)
		record[10] = strconv.FormatInt(r.ThorIMUTSMillis, 10)
		record[11] = strconv.FormatInt(r.LumIMUTSMillis, 10)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
