package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSessionKind(t *testing.T) {
	assert.True(t, ValidSessionKind(SessionKindMonitor))
	assert.True(t, ValidSessionKind(SessionKindRoutine))
	assert.True(t, ValidSessionKind(SessionKindBaseline))
	assert.False(t, ValidSessionKind("workout"))
	assert.False(t, ValidSessionKind(""))
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode(ModeDesk))
	assert.True(t, ValidMode(ModeTrain))
	assert.False(t, ValidMode("office"))
	assert.False(t, ValidMode(""))
}

func TestZone_Severity(t *testing.T) {
	assert.Equal(t, 0, ZoneGreen.Severity())
	assert.Equal(t, 1, ZoneYellow.Severity())
	assert.Equal(t, 2, ZoneRed.Severity())
}

func TestZone_Valid(t *testing.T) {
	assert.True(t, ZoneGreen.Valid())
	assert.True(t, ZoneYellow.Valid())
	assert.True(t, ZoneRed.Valid())
	assert.False(t, Zone("amber").Valid())
	assert.False(t, Zone("").Valid())
}
