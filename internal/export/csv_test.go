package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axisfit/axisfit-service/internal/models"
)

func TestFilename(t *testing.T) {
	at := time.Date(2026, 2, 24, 10, 15, 30, 0, time.UTC)

	assert.Equal(t, "session_20260224_101530.csv", Filename("session", "csv", at, ""))
	assert.Equal(t, "session_20260224_101530_user1.csv", Filename("session", ".csv", at, "user1"))
	assert.Equal(t, "export_20260224_101530", Filename("  ", "", at, ""))
	assert.Equal(t, "my_data_20260224_101530.csv", Filename("my data", "csv", at, ""))
}

func TestWriteSessionCSV(t *testing.T) {
	rows := []models.AnnotatedSample{
		{
			TSMillis:  1000,
			ThorPitch: 2.5, ThorRoll: -1.25, ThorYaw: 0.5,
			LumPitch: 3.75, LumRoll: 0.1, LumYaw: -0.2,
			ThorZone: models.ZoneGreen, LumZone: models.ZoneYellow,
			CompIndex:       12.3456,
			ThorIMUTSMillis: 980, LumIMUTSMillis: 1010,
		},
		{
			TSMillis: 1020,
			ThorZone: models.ZoneRed, LumZone: models.ZoneRed,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSessionCSV(&buf, rows))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\uFEFF"))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF")))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"ts_ms",
		"T_pitch", "T_roll", "T_yaw",
		"L_pitch", "L_roll", "L_yaw",
		"thor_zone", "lum_zone", "comp_index",
		"T_imu_ts_ms", "L_imu_ts_ms",
	}, records[0])

	assert.Equal(t, "1000", records[1][0])
	assert.Equal(t, "2.5000", records[1][1])
	assert.Equal(t, "-1.2500", records[1][2])
	assert.Equal(t, "green", records[1][7])
	assert.Equal(t, "yellow", records[1][8])
	assert.Equal(t, "12.3456", records[1][9])
	assert.Equal(t, "980", records[1][10])

	assert.Equal(t, "red", records[2][7])
	assert.Equal(t, "0.0000", records[2][1])
}

func TestWriteSessionCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSessionCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1) // header only
}
