// Package lookup implements a two-dimensional numeric table addressed by
// real-world coordinates (temperature in °C, relative humidity in %) instead
// of zero-based indices. A table spanning temperatures -23..65 stores its
// first row at -23; callers never translate coordinates themselves.
//
// Tables are immutable after construction and safe for concurrent reads.
package lookup

import (
	"fmt"
	"math"
)

// Value constrains the grid element types: integer preservation/mold-risk
// values or floating-point moisture percentages.
type Value interface {
	~int16 | ~float64
}

// Boundary selects per-axis handling of coordinates outside the table range.
type Boundary uint8

const (
	// Raise rejects out-of-range coordinates on both axes with a BoundsError.
	Raise Boundary = 0
	// ClampTemp clamps temperature into range; humidity still raises.
	ClampTemp Boundary = 1 << 0
	// ClampRH clamps relative humidity into range; temperature still raises.
	ClampRH Boundary = 1 << 1
	// Clamp clamps both axes.
	Clamp Boundary = ClampTemp | ClampRH
)

// String returns the artifact tag for the boundary policy.
func (b Boundary) String() string {
	switch b {
	case Raise:
		return "raise"
	case ClampTemp:
		return "clamp_temp"
	case ClampRH:
		return "clamp_rh"
	case Clamp:
		return "clamp"
	default:
		return fmt.Sprintf("boundary(%d)", uint8(b))
	}
}

// ParseBoundary converts an artifact tag back into a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "raise":
		return Raise, nil
	case "clamp_temp":
		return ClampTemp, nil
	case "clamp_rh":
		return ClampRH, nil
	case "clamp":
		return Clamp, nil
	default:
		return 0, fmt.Errorf("unknown boundary policy %q", s)
	}
}

// Rounding maps a real coordinate to an integer grid coordinate.
type Rounding func(float64) int

// RoundHalfAwayFromZero rounds to the nearest integer with ties moving away
// from zero: 2.5 → 3, -2.5 → -3. This reproduces the numeric convention of
// the upstream calculator, which downstream results are compared against
// bit-for-bit.
func RoundHalfAwayFromZero(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5))
	}
	return int(math.Ceil(x - 0.5))
}

// RoundHalfUp rounds to the nearest integer with ties moving toward positive
// infinity: 2.5 → 3, -2.5 → -2. Earlier revisions of the upstream source
// used this rule; it is kept for consumers pinned to such a revision.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Table is a 2D grid addressed by (temperature, humidity) coordinates.
// Row 0 corresponds to tempMin, column 0 to rhMin.
type Table[T Value] struct {
	data     [][]T
	tempMin  int
	rhMin    int
	behavior Boundary
	round    Rounding
}

// Option configures a Table at construction.
type Option[T Value] func(*Table[T])

// WithRounding overrides the default round-half-away-from-zero rule.
func WithRounding[T Value](r Rounding) Option[T] {
	return func(t *Table[T]) {
		if r != nil {
			t.round = r
		}
	}
}

// New builds a Table from a rectangular, non-empty 2D grid. The grid is
// deep-copied so the table cannot be mutated through the source slice.
// Returns an error wrapping ErrInvalidShape if the grid has no rows, an
// empty row, or rows of unequal length.
func New[T Value](data [][]T, tempMin, rhMin int, behavior Boundary, opts ...Option[T]) (*Table[T], error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidShape)
	}
	cols := len(data[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidShape)
	}
	grid := make([][]T, len(data))
	for i, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidShape, i, len(row), cols)
		}
		grid[i] = make([]T, cols)
		copy(grid[i], row)
	}

	t := &Table[T]{
		data:     grid,
		tempMin:  tempMin,
		rhMin:    rhMin,
		behavior: behavior,
		round:    RoundHalfAwayFromZero,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TempMin returns the temperature mapped to row 0.
func (t *Table[T]) TempMin() int { return t.tempMin }

// TempMax returns the temperature mapped to the last row.
func (t *Table[T]) TempMax() int { return t.tempMin + len(t.data) - 1 }

// RHMin returns the relative humidity mapped to column 0.
func (t *Table[T]) RHMin() int { return t.rhMin }

// RHMax returns the relative humidity mapped to the last column.
func (t *Table[T]) RHMax() int { return t.rhMin + len(t.data[0]) - 1 }

// Behavior returns the table's boundary policy.
func (t *Table[T]) Behavior() Boundary { return t.behavior }

// Dims returns (rows, cols) of the underlying grid.
func (t *Table[T]) Dims() (int, int) { return len(t.data), len(t.data[0]) }

// Size returns the total element count.
func (t *Table[T]) Size() int { return len(t.data) * len(t.data[0]) }

// Grid returns a deep copy of the underlying grid, row-major.
func (t *Table[T]) Grid() [][]T {
	out := make([][]T, len(t.data))
	for i, row := range t.data {
		out[i] = make([]T, len(row))
		copy(out[i], row)
	}
	return out
}

// At returns the value at the given real-world coordinates.
//
// Non-finite coordinates fail with an InputError before any bounds check.
// Out-of-range coordinates are clamped or rejected per the table's boundary
// policy; rejection yields a *BoundsError identifying the axis and direction.
// Bounds are evaluated against the raw coordinates, matching the source
// calculator: a reading just outside the grid is rejected or clamped even
// when it would round onto an edge cell. Rounding only selects the cell
// indices afterwards. At is pure: identical inputs always return the
// identical value.
func (t *Table[T]) At(temp, rh float64) (T, error) {
	var zero T

	if !isFinite(temp) {
		return zero, &InputError{Axis: AxisTemperature, Value: temp}
	}
	if !isFinite(rh) {
		return zero, &InputError{Axis: AxisHumidity, Value: rh}
	}

	temp, err := t.bound(temp, AxisTemperature, float64(t.TempMin()), float64(t.TempMax()), t.behavior&ClampTemp != 0)
	if err != nil {
		return zero, err
	}
	rh, err = t.bound(rh, AxisHumidity, float64(t.RHMin()), float64(t.RHMax()), t.behavior&ClampRH != 0)
	if err != nil {
		return zero, err
	}

	row := t.round(temp) - t.tempMin
	col := t.round(rh) - t.rhMin
	return t.data[row][col], nil
}

// bound validates one coordinate against [min, max], clamping when allowed.
func (t *Table[T]) bound(v float64, axis Axis, min, max float64, clamp bool) (float64, error) {
	if v < min {
		if !clamp {
			return 0, &BoundsError{Axis: axis, Value: v, Limit: min, Above: false}
		}
		return min, nil
	}
	if v > max {
		if !clamp {
			return 0, &BoundsError{Axis: axis, Value: v, Limit: max, Above: true}
		}
		return max, nil
	}
	return v, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
