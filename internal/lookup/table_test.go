package lookup_test

import (
	"errors"
	"math"
	"testing"

	"github.com/couchcryptid/preservation-eval/internal/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 3x4 grid spanning temperature 2..4 and humidity 65..68.
func testGrid() [][]int16 {
	return [][]int16{
		{10, 11, 12, 13},
		{20, 21, 22, 23},
		{30, 31, 32, 33},
	}
}

func newTable(t *testing.T, behavior lookup.Boundary) *lookup.Table[int16] {
	t.Helper()
	tbl, err := lookup.New(testGrid(), 2, 65, behavior)
	require.NoError(t, err)
	return tbl
}

func TestNew_Geometry(t *testing.T) {
	tbl := newTable(t, lookup.Clamp)

	rows, cols := tbl.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 12, tbl.Size())

	// max = min + extent - 1 on both axes.
	assert.Equal(t, tbl.TempMin()+rows-1, tbl.TempMax())
	assert.Equal(t, tbl.RHMin()+cols-1, tbl.RHMax())
	assert.Equal(t, 4, tbl.TempMax())
	assert.Equal(t, 68, tbl.RHMax())
}

func TestNew_RejectsInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		data [][]int16
	}{
		{"no rows", [][]int16{}},
		{"empty row", [][]int16{{}}},
		{"ragged rows", [][]int16{{1, 2}, {3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lookup.New(tt.data, 0, 0, lookup.Raise)
			require.Error(t, err)
			assert.ErrorIs(t, err, lookup.ErrInvalidShape)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	data := testGrid()
	tbl, err := lookup.New(data, 2, 65, lookup.Raise)
	require.NoError(t, err)

	data[0][0] = 99
	v, err := tbl.At(2, 65)
	require.NoError(t, err)
	assert.Equal(t, int16(10), v)
}

func TestAt_OriginReturnsFirstCell(t *testing.T) {
	tbl := newTable(t, lookup.Raise)

	v, err := tbl.At(2, 65)
	require.NoError(t, err)
	assert.Equal(t, int16(10), v)
}

func TestAt_RoundsCoordinates(t *testing.T) {
	tbl := newTable(t, lookup.Raise)

	// 2.4 rounds to 2, 66.5 rounds to 67.
	v, err := tbl.At(2.4, 66.5)
	require.NoError(t, err)
	assert.Equal(t, int16(12), v)

	// 3.5 rounds to 4.
	v, err = tbl.At(3.5, 65)
	require.NoError(t, err)
	assert.Equal(t, int16(30), v)
}

func TestAt_ClampIdempotence(t *testing.T) {
	tbl := newTable(t, lookup.Clamp)

	atMin, err := tbl.At(2, 65)
	require.NoError(t, err)
	atMax, err := tbl.At(4, 68)
	require.NoError(t, err)

	for _, k := range []float64{0.5, 1, 7, 100} {
		below, err := tbl.At(2-k, 65-k)
		require.NoError(t, err)
		assert.Equal(t, atMin, below, "below-range lookup must clamp to minimum")

		above, err := tbl.At(4+k, 68+k)
		require.NoError(t, err)
		assert.Equal(t, atMax, above, "above-range lookup must clamp to maximum")
	}
}

func TestAt_RaisePolicy(t *testing.T) {
	tbl := newTable(t, lookup.Raise)

	tests := []struct {
		name      string
		temp, rh  float64
		axis      lookup.Axis
		wantAbove bool
	}{
		{"temp below min", 1, 65, lookup.AxisTemperature, false},
		{"temp above max", 5, 65, lookup.AxisTemperature, true},
		{"rh below min", 2, 64, lookup.AxisHumidity, false},
		{"rh above max", 2, 69, lookup.AxisHumidity, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.At(tt.temp, tt.rh)
			var be *lookup.BoundsError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.axis, be.Axis)
			assert.Equal(t, tt.wantAbove, be.Above)
		})
	}
}

func TestAt_MixedPolicyClampsOneAxisOnly(t *testing.T) {
	tbl, err := lookup.New(testGrid(), 2, 65, lookup.ClampTemp)
	require.NoError(t, err)

	// Temperature clamps.
	v, err := tbl.At(-40, 65)
	require.NoError(t, err)
	assert.Equal(t, int16(10), v)

	// Humidity still raises.
	_, err = tbl.At(2, 64)
	var be *lookup.BoundsError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, lookup.AxisHumidity, be.Axis)
}

func TestAt_NonFiniteInput(t *testing.T) {
	// Non-finite coordinates are rejected before bounds handling, even under
	// a clamp policy.
	tbl := newTable(t, lookup.Clamp)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := tbl.At(bad, 65)
		var ie *lookup.InputError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, lookup.AxisTemperature, ie.Axis)

		_, err = tbl.At(2, bad)
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, lookup.AxisHumidity, ie.Axis)
	}
}

func TestAt_Deterministic(t *testing.T) {
	tbl := newTable(t, lookup.Clamp)

	first, err := tbl.At(3.5, 66.2)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		v, err := tbl.At(3.5, 66.2)
		require.NoError(t, err)
		assert.Equal(t, first, v)
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.5, 1},
		{-0.5, -1},
		{2.5, 3},
		{-2.5, -3},
		{2.4, 2},
		{-2.4, -2},
		{2.6, 3},
		{-2.6, -3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lookup.RoundHalfAwayFromZero(tt.in), "round(%v)", tt.in)
	}

	// Odd function on half-integers: round(-x) == -round(x).
	for x := 0.5; x < 20; x++ {
		assert.Equal(t, -lookup.RoundHalfAwayFromZero(x), lookup.RoundHalfAwayFromZero(-x))
	}
}

func TestRoundHalfUp_NegativeTies(t *testing.T) {
	assert.Equal(t, 3, lookup.RoundHalfUp(2.5))
	assert.Equal(t, -2, lookup.RoundHalfUp(-2.5))
}

func TestWithRounding_Override(t *testing.T) {
	tbl, err := lookup.New(testGrid(), -4, 65, lookup.Raise, lookup.WithRounding[int16](lookup.RoundHalfUp))
	require.NoError(t, err)

	// -3.5 rounds to -3 under half-up; row index 1.
	v, err := tbl.At(-3.5, 65)
	require.NoError(t, err)
	assert.Equal(t, int16(20), v)
}

func TestGrid_ReturnsCopy(t *testing.T) {
	tbl := newTable(t, lookup.Raise)

	grid := tbl.Grid()
	grid[0][0] = 99

	v, err := tbl.At(2, 65)
	require.NoError(t, err)
	assert.Equal(t, int16(10), v)
}

func TestBoundaryRoundTrip(t *testing.T) {
	for _, b := range []lookup.Boundary{lookup.Raise, lookup.ClampTemp, lookup.ClampRH, lookup.Clamp} {
		parsed, err := lookup.ParseBoundary(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}

	_, err := lookup.ParseBoundary("sideways")
	require.Error(t, err)
	assert.False(t, errors.Is(err, lookup.ErrInvalidShape))
}
