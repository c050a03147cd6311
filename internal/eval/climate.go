package eval

import (
	"fmt"
	"math"
)

// DewPoint returns the dew point in °C for a temperature in °C and relative
// humidity in percent, using the Magnus-form approximation the lookup tables
// were built against.
func DewPoint(t, rh float64) float64 {
	return (112+0.9*t)*math.Pow(rh/100, 1.0/8.0) + 0.1*t - 112
}

// TempFromDewPoint returns the air temperature in °C at which the given
// relative humidity produces the given dew point. Inverse of DewPoint in t.
func TempFromDewPoint(rh, td float64) float64 {
	return (td + 112 - 112*math.Pow(rh/100, 1.0/8.0)) /
		(0.9*math.Pow(rh/100, 1.0/8.0) + 0.1)
}

// RHFromDewPoint returns the relative humidity in percent at which the given
// temperature produces the given dew point. Inverse of DewPoint in rh.
func RHFromDewPoint(t, td float64) float64 {
	return 100 * math.Pow((112-0.1*t+td)/(112+0.9*t), 8)
}

// ToCelsius converts a temperature in the named scale ("c", "f" or "k",
// case-insensitive) to °C.
func ToCelsius(x float64, scale string) (float64, error) {
	switch scale {
	case "c", "C", "":
		return x, nil
	case "f", "F":
		return (x - 32) * 5 / 9, nil
	case "k", "K":
		return x - 273.15, nil
	default:
		return 0, fmt.Errorf("unknown temperature scale %q", scale)
	}
}
