// Package tables assembles parsed dp.js data into the three preservation
// lookup tables and persists them as a reloadable artifact.
package tables

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/preservation-eval/internal/dpcalc"
	"github.com/couchcryptid/preservation-eval/internal/lookup"
)

// Set is the complete table set a process works against. Constructed once,
// immutable, and passed explicitly to consumers; there are no package-level
// table singletons.
type Set struct {
	// PI maps (temp, rh) to a preservation index in years. Clamps both axes.
	PI *lookup.Table[int16]
	// Mold maps (temp, rh) to days until likely mold growth. Raises outside
	// its validity window; mold risk is undefined there, not zero by table.
	Mold *lookup.Table[int16]
	// EMC maps (temp, rh) to equilibrium moisture content in percent.
	// Clamps both axes.
	EMC *lookup.Table[float64]
}

// Soft validation bounds per table. Observed values outside these ranges are
// diagnostic of upstream drift, not fatal: the source is not under our
// control.
type valueBounds struct {
	min, max float64
}

var (
	piBounds   = valueBounds{0, 9999}
	moldBounds = valueBounds{0, 366}
	emcBounds  = valueBounds{0, 30}
)

// Assemble slices the shared flat array into the pi and mold tables, reshapes
// all three grids, validates them, and constructs the lookup tables with
// their boundary policies. Partial success is not an outcome: any failure
// returns a nil Set.
func Assemble(meta dpcalc.Metadata, piArr []int16, emcArr []float64, logger *slog.Logger) (*Set, error) {
	need := meta.PI.Size()
	if end := meta.Mold.ArrayOffset + meta.Mold.Size(); end > need {
		need = end
	}
	if len(piArr) < need {
		return nil, &dpcalc.ValidationError{
			Msg: fmt.Sprintf("pi array has %d values, metadata implies %d", len(piArr), need),
		}
	}

	piGrid, err := reshape("pi", piArr[:meta.PI.Size()], meta.PI.TempRange(), meta.PI.RHRange())
	if err != nil {
		return nil, err
	}
	moldGrid, err := reshape("mold",
		piArr[meta.Mold.ArrayOffset:meta.Mold.ArrayOffset+meta.Mold.Size()],
		meta.Mold.TempRange(), meta.Mold.RHRange())
	if err != nil {
		return nil, err
	}
	emcGrid, err := reshape("emc", emcArr, meta.EMC.TempRange(), meta.EMC.RHRange())
	if err != nil {
		return nil, err
	}

	if err := checkGrid("pi", piGrid, piBounds, logger); err != nil {
		return nil, err
	}
	if err := checkGrid("mold", moldGrid, moldBounds, logger); err != nil {
		return nil, err
	}
	if err := checkGrid("emc", emcGrid, emcBounds, logger); err != nil {
		return nil, err
	}

	pi, err := lookup.New(piGrid, meta.PI.TempMin, meta.PI.RHMin, lookup.Clamp)
	if err != nil {
		return nil, fmt.Errorf("construct pi table: %w", err)
	}
	mold, err := lookup.New(moldGrid, meta.Mold.TempMin, meta.Mold.RHMin, lookup.Raise)
	if err != nil {
		return nil, fmt.Errorf("construct mold table: %w", err)
	}
	emc, err := lookup.New(emcGrid, meta.EMC.TempMin, meta.EMC.RHMin, lookup.Clamp)
	if err != nil {
		return nil, fmt.Errorf("construct emc table: %w", err)
	}

	return &Set{PI: pi, Mold: mold, EMC: emc}, nil
}

// reshape converts a flat slice into a rows x cols grid, copying the data so
// no table aliases the shared parse buffer.
func reshape[T lookup.Value](name string, flat []T, rows, cols int) ([][]T, error) {
	if len(flat) != rows*cols {
		return nil, &dpcalc.ValidationError{
			Msg: fmt.Sprintf("%s table: %d elements cannot fill %dx%d grid", name, len(flat), rows, cols),
		}
	}
	grid := make([][]T, rows)
	for i := range grid {
		grid[i] = make([]T, cols)
		copy(grid[i], flat[i*cols:(i+1)*cols])
	}
	return grid, nil
}

// checkGrid enforces the hard finite-values invariant and emits soft
// warnings: observed min/max outside the expected bounds, or a maximum
// adjacent-cell jump exceeding half the expected span, which usually means
// the parse sliced the flat array at the wrong boundary.
func checkGrid[T lookup.Value](name string, grid [][]T, bounds valueBounds, logger *slog.Logger) error {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	maxJump := 0.0

	for i, row := range grid {
		for j, cell := range row {
			v := float64(cell)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &dpcalc.ValidationError{
					Msg: fmt.Sprintf("%s table: non-finite value at row %d col %d", name, i, j),
				}
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			if j+1 < len(row) {
				maxJump = math.Max(maxJump, math.Abs(v-float64(row[j+1])))
			}
			if i+1 < len(grid) {
				maxJump = math.Max(maxJump, math.Abs(v-float64(grid[i+1][j])))
			}
		}
	}

	if lo < bounds.min || hi > bounds.max {
		logger.Warn("table values outside expected bounds",
			"table", name,
			"observed_min", lo, "observed_max", hi,
			"expected_min", bounds.min, "expected_max", bounds.max,
		)
	}
	if halfSpan := (bounds.max - bounds.min) / 2; maxJump > halfSpan {
		logger.Warn("table has discontinuous adjacent cells, parse may be misaligned",
			"table", name,
			"max_adjacent_difference", maxJump,
			"threshold", halfSpan,
		)
	}
	return nil
}
