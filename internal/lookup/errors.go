package lookup

import (
	"errors"
	"fmt"
)

// ErrInvalidShape reports a grid that is not a non-empty rectangle.
var ErrInvalidShape = errors.New("invalid table shape")

// Axis identifies which coordinate of a lookup violated a constraint.
type Axis int

const (
	AxisTemperature Axis = iota
	AxisHumidity
)

func (a Axis) String() string {
	switch a {
	case AxisTemperature:
		return "temperature"
	case AxisHumidity:
		return "relative humidity"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// BoundsError reports a lookup coordinate outside the table range on an axis
// with a raise policy. Above distinguishes above-maximum from below-minimum.
type BoundsError struct {
	Axis  Axis
	Value float64
	Limit float64
	Above bool
}

func (e *BoundsError) Error() string {
	if e.Above {
		return fmt.Sprintf("%s %v above maximum %v", e.Axis, e.Value, e.Limit)
	}
	return fmt.Sprintf("%s %v below minimum %v", e.Axis, e.Value, e.Limit)
}

// InputError reports a non-finite lookup coordinate (NaN or ±Inf). It is
// returned before any bounds check and is never absorbed by clamping.
type InputError struct {
	Axis  Axis
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s coordinate must be finite, got %v", e.Axis, e.Value)
}
