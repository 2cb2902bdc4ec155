package asset

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestNew(t *testing.T) {
	a, err := New("DG1", DieselGenerator, 250)
	assert.NilError(t, err)

	assert.Equal(t, a.Name(), "DG1")
	assert.Equal(t, a.Type(), DieselGenerator)
	assert.Equal(t, a.Rating(), 250.0)
}

func TestNewNegativeRating(t *testing.T) {
	_, err := New("B1", Battery, -1)
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestWithRatingKeepsPID(t *testing.T) {
	a, err := New("PV1", Photovoltaic, 10)
	assert.NilError(t, err)

	b := a.WithRating(20)
	assert.Equal(t, a.PID(), b.PID())
	assert.Equal(t, b.Rating(), 20.0)
	assert.Equal(t, a.Rating(), 10.0)
}

func TestParseType(t *testing.T) {
	for _, kind := range Types {
		parsed, err := ParseType(kind.String())
		assert.NilError(t, err)
		assert.Equal(t, parsed, kind)
	}

	_, err := ParseType("wind_turbine")
	assert.ErrorContains(t, err, "unknown component type")
}

func TestTypeText(t *testing.T) {
	var kind Type
	err := kind.UnmarshalText([]byte("battery"))
	assert.NilError(t, err)
	assert.Equal(t, kind, Battery)

	b, err := Photovoltaic.MarshalText()
	assert.NilError(t, err)
	assert.Equal(t, string(b), "photovoltaic_panel")
}
