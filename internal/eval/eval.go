// Package eval computes preservation-risk measures for a temperature and
// relative humidity against an assembled table set: preservation index (PI),
// equilibrium moisture content (EMC), mold risk, and the environmental
// ratings derived from them.
package eval

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/preservation-eval/internal/lookup"
	"github.com/couchcryptid/preservation-eval/internal/tables"
)

// Supported input ranges. Readings outside these are sensor faults, not
// conditions the tables can say anything about.
const (
	TempMin = -40.0
	TempMax = 85.0
	RHMin   = 0.0
	RHMax   = 100.0
)

// ErrInvalidInput marks readings outside the supported input ranges.
var ErrInvalidInput = errors.New("invalid input")

// Rating grades an environmental risk factor.
type Rating string

const (
	RatingGood Rating = "GOOD"
	RatingOK   Rating = "OK"
	RatingRisk Rating = "RISK"
)

// Result holds all measures for one (temperature, humidity) pair.
type Result struct {
	PI       int16   `json:"pi"`
	EMC      float64 `json:"emc"`
	Mold     int16   `json:"mold"`
	DewPoint float64 `json:"dew_point"`

	NaturalAging     Rating `json:"natural_aging"`
	MechanicalDamage Rating `json:"mechanical_damage"`
	MetalCorrosion   Rating `json:"metal_corrosion"`
	MoldGrowth       Rating `json:"mold_growth"`
}

// Evaluator answers preservation queries against one immutable table set.
// Safe for concurrent use.
type Evaluator struct {
	tables *tables.Set
}

// New creates an Evaluator over the given table set.
func New(set *tables.Set) *Evaluator {
	return &Evaluator{tables: set}
}

// PI returns the preservation index in years. Higher is slower chemical
// decay. The table clamps at its edges, so any valid reading resolves.
func (e *Evaluator) PI(t, rh float64) (int16, error) {
	if err := validateInputs(t, rh); err != nil {
		return 0, err
	}
	v, err := e.tables.PI.At(t, rh)
	if err != nil {
		return 0, fmt.Errorf("pi lookup: %w", err)
	}
	return v, nil
}

// EMC returns the equilibrium moisture content percentage.
func (e *Evaluator) EMC(t, rh float64) (float64, error) {
	if err := validateInputs(t, rh); err != nil {
		return 0, err
	}
	v, err := e.tables.EMC.At(t, rh)
	if err != nil {
		return 0, fmt.Errorf("emc lookup: %w", err)
	}
	return v, nil
}

// Mold returns days until likely mold growth, or 0 when the conditions fall
// outside the mold table's validity window (no risk).
func (e *Evaluator) Mold(t, rh float64) (int16, error) {
	if err := validateInputs(t, rh); err != nil {
		return 0, err
	}
	v, err := e.tables.Mold.At(t, rh)
	if err != nil {
		var be *lookup.BoundsError
		if errors.As(err, &be) {
			return 0, nil
		}
		return 0, fmt.Errorf("mold lookup: %w", err)
	}
	return v, nil
}

// Evaluate computes all measures and ratings for one reading.
func (e *Evaluator) Evaluate(t, rh float64) (Result, error) {
	pi, err := e.PI(t, rh)
	if err != nil {
		return Result{}, err
	}
	emc, err := e.EMC(t, rh)
	if err != nil {
		return Result{}, err
	}
	mold, err := e.Mold(t, rh)
	if err != nil {
		return Result{}, err
	}

	return Result{
		PI:       pi,
		EMC:      emc,
		Mold:     mold,
		DewPoint: DewPoint(t, rh),

		NaturalAging:     RateNaturalAging(float64(pi)),
		MechanicalDamage: RateMechanicalDamage(emc),
		MetalCorrosion:   RateMetalCorrosion(emc),
		MoldGrowth:       RateMoldGrowth(float64(mold)),
	}, nil
}

func validateInputs(t, rh float64) error {
	if t < TempMin || t > TempMax {
		return fmt.Errorf("%w: temperature %g outside %g..%g °C", ErrInvalidInput, t, TempMin, TempMax)
	}
	if rh < RHMin || rh > RHMax {
		return fmt.Errorf("%w: relative humidity %g outside %g..%g %%", ErrInvalidInput, rh, RHMin, RHMax)
	}
	return nil
}

// RateNaturalAging grades chemical decay risk by preservation index:
// ≥75 years GOOD, <45 RISK, otherwise OK.
func RateNaturalAging(pi float64) Rating {
	switch {
	case pi >= 75:
		return RatingGood
	case pi < 45:
		return RatingRisk
	default:
		return RatingOK
	}
}

// RateMechanicalDamage grades dimensional-change risk by moisture content:
// 5..12.5% OK, outside RISK.
func RateMechanicalDamage(emc float64) Rating {
	if emc >= 5 && emc <= 12.5 {
		return RatingOK
	}
	return RatingRisk
}

// RateMetalCorrosion grades corrosion risk by moisture content:
// <7% GOOD, <10.5% OK, otherwise RISK.
func RateMetalCorrosion(emc float64) Rating {
	switch {
	case emc < 7.0:
		return RatingGood
	case emc < 10.5:
		return RatingOK
	default:
		return RatingRisk
	}
}

// RateMoldGrowth grades mold risk: 0 days means no risk, anything else is a
// risk whose value is the days to likely mold.
func RateMoldGrowth(mrf float64) Rating {
	if mrf == 0 {
		return RatingGood
	}
	return RatingRisk
}
