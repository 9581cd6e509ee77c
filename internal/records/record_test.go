package records

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func TestParseMeasurement(t *testing.T) {
	m, err := ParseMeasurement("")
	require.NoError(t, err)
	assert.Equal(t, MeasurementWeight, m)

	m, err = ParseMeasurement(" Waist ")
	require.NoError(t, err)
	assert.Equal(t, MeasurementWaist, m)

	_, err = ParseMeasurement("height")
	assert.Error(t, err)
}

func TestRecord_Validate(t *testing.T) {
	assert.NoError(t, Record{PatientID: 1, WeekNumber: 0}.Validate())
	assert.NoError(t, Record{PatientID: 1, WeekNumber: 3, Weight: ptr(0)}.Validate())

	assert.ErrorIs(t, Record{WeekNumber: 1}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Record{PatientID: 1, WeekNumber: -2}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Record{PatientID: 1, Waist: ptr(-1)}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Record{PatientID: 1, Weight: ptr(math.NaN())}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Record{PatientID: 1, Weight: ptr(math.Inf(1))}.Validate(), ErrInvalidRecord)
}

func TestToSeries(t *testing.T) {
	recs := []Record{
		{PatientID: 1, WeekNumber: 0, Weight: ptr(90), Waist: ptr(100)},
		{PatientID: 1, WeekNumber: 1, Weight: ptr(89)},
	}

	weights := ToSeries(recs, MeasurementWeight)
	require.Len(t, weights, 2)
	assert.Equal(t, 89.0, *weights[1].Quantity)

	waists := ToSeries(recs, MeasurementWaist)
	require.Len(t, waists, 2)
	assert.Equal(t, 100.0, *waists[0].Quantity)
	assert.Nil(t, waists[1].Quantity)
}
