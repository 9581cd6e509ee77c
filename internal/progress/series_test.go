package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	records := []WeeklyRecord{
		{WeekNumber: 3, Quantity: Q(195)},
		{WeekNumber: 0, Quantity: Q(200)},
		{WeekNumber: 2, Quantity: nil},
		{WeekNumber: 1, Quantity: Q(198)},
		{WeekNumber: -1, Quantity: Q(201)},
		{WeekNumber: 4, Quantity: Q(math.NaN())},
		{WeekNumber: 5, Quantity: Q(math.Inf(1))},
		{WeekNumber: 6, Quantity: Q(-3)},
	}

	normalized := Normalize(records)
	require.Len(t, normalized, 3)
	assert.Equal(t, 0, normalized[0].WeekNumber)
	assert.Equal(t, 1, normalized[1].WeekNumber)
	assert.Equal(t, 3, normalized[2].WeekNumber)
	assert.Equal(t, 195.0, *normalized[2].Quantity)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize([]WeeklyRecord{}))
	assert.Empty(t, Normalize([]WeeklyRecord{{WeekNumber: 0}, {WeekNumber: 1}}))
}

func TestNormalize_DuplicateWeekLastWins(t *testing.T) {
	normalized := Normalize([]WeeklyRecord{
		{WeekNumber: 1, Quantity: Q(198)},
		{WeekNumber: 0, Quantity: Q(200)},
		{WeekNumber: 1, Quantity: Q(197)},
	})
	require.Len(t, normalized, 2)
	assert.Equal(t, 197.0, *normalized[1].Quantity)
}

func TestNormalize_KeepsZeroQuantity(t *testing.T) {
	normalized := Normalize([]WeeklyRecord{
		{WeekNumber: 0, Quantity: Q(0)},
		{WeekNumber: 1, Quantity: Q(100)},
	})
	require.Len(t, normalized, 2)
	assert.Equal(t, 0.0, *normalized[0].Quantity)
}

func TestDeltas(t *testing.T) {
	ds := Deltas([]WeeklyRecord{
		{WeekNumber: 0, Quantity: Q(200)},
		{WeekNumber: 1, Quantity: Q(198)},
		{WeekNumber: 2},
		{WeekNumber: 3, Quantity: Q(196)},
		{WeekNumber: 4, Quantity: Q(199.92)},
	})
	require.Len(t, ds, 3)

	assert.Equal(t, 1, ds[0].WeekNumber)
	assert.InDelta(t, 1.0, ds[0].PercentChange, 1e-9)
	// the gap at week 2 is bridged against week 1
	assert.Equal(t, 3, ds[1].WeekNumber)
	assert.InDelta(t, 2.0/198*100, ds[1].PercentChange, 1e-9)
	// a gain is a negative change
	assert.Equal(t, 4, ds[2].WeekNumber)
	assert.InDelta(t, -2.0, ds[2].PercentChange, 1e-9)
}

func TestDeltas_ZeroPriorSkipped(t *testing.T) {
	ds := Deltas([]WeeklyRecord{
		{WeekNumber: 0, Quantity: Q(100)},
		{WeekNumber: 1, Quantity: Q(0)},
		{WeekNumber: 2, Quantity: Q(100)},
		{WeekNumber: 3, Quantity: Q(99)},
	})
	require.Len(t, ds, 2)
	assert.Equal(t, 1, ds[0].WeekNumber)
	assert.InDelta(t, 100.0, ds[0].PercentChange, 1e-9)
	assert.Equal(t, 3, ds[1].WeekNumber)
}

func TestDeltas_SingleRecord(t *testing.T) {
	assert.Empty(t, Deltas([]WeeklyRecord{{WeekNumber: 0, Quantity: Q(80)}}))
}

func TestResolveBaseline(t *testing.T) {
	_, ok := ResolveBaseline(nil)
	assert.False(t, ok)

	_, ok = ResolveBaseline([]WeeklyRecord{{WeekNumber: 0}, {WeekNumber: 1}})
	assert.False(t, ok)

	b, ok := ResolveBaseline([]WeeklyRecord{
		{WeekNumber: 3, Quantity: Q(99)},
		{WeekNumber: 2, Quantity: Q(100)},
	})
	require.True(t, ok)
	assert.Equal(t, 2, b.WeekNumber)

	// week 0 showing up later replaces the fallback
	b, ok = ResolveBaseline([]WeeklyRecord{
		{WeekNumber: 3, Quantity: Q(99)},
		{WeekNumber: 2, Quantity: Q(100)},
		{WeekNumber: 0, Quantity: Q(104)},
	})
	require.True(t, ok)
	assert.Equal(t, 0, b.WeekNumber)
	assert.Equal(t, 104.0, *b.Quantity)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, round2(0.125))
	assert.Equal(t, -0.13, round2(-0.125))
	assert.Equal(t, 0.76, round2(0.758275))
	assert.Equal(t, 1.0, round2(0.999))

	zero := round2(-0.001)
	assert.Equal(t, 0.0, zero)
	assert.False(t, math.Signbit(zero))
}
