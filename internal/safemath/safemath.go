// Package safemath provides integer-scaled decimal arithmetic for weight
// and money values so repeated operations stay free of binary
// floating-point drift. Weights carry one decimal place, money two.
package safemath

import "math"

const (
	// guardScale keeps four decimal digits of guard precision for
	// additive operations.
	guardScale = 10000
	// factorScale keeps two decimal digits per operand for products,
	// bounding intermediate magnitudes for typical weight×price ranges.
	factorScale = 100
	// boundaryNudge counteracts representation error exactly at the
	// two-decimal rounding boundary. Rounding is half-away-from-zero
	// after the nudge, not banker's rounding.
	boundaryNudge = 2.220446049250313e-16
)

// SafeAdd adds two decimals through integer scaling.
// SafeAdd(0.1, 0.2) == 0.3 exactly.
func SafeAdd(a, b float64) float64 {
	return (math.Round(a*guardScale) + math.Round(b*guardScale)) / guardScale
}

// SafeSub subtracts b from a through integer scaling.
func SafeSub(a, b float64) float64 {
	return (math.Round(a*guardScale) - math.Round(b*guardScale)) / guardScale
}

// SafeMult multiplies two decimals, each scaled to two decimal places.
// Values beyond two decimals per operand are rounded away.
func SafeMult(a, b float64) float64 {
	return (math.Round(a*factorScale) * math.Round(b*factorScale)) / (factorScale * factorScale)
}

// RoundToTwo rounds to two decimal places for monetary storage and
// display.
func RoundToTwo(x float64) float64 {
	return math.Round((x+boundaryNudge)*factorScale) / factorScale
}

// SafeSum folds the values with SafeAdd, seeded at zero, so cumulative
// sums over many small readings do not drift.
func SafeSum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total = SafeAdd(total, v)
	}
	return total
}

// WeightedCalc computes a rounded price line: RoundToTwo(SafeMult(value, rate)).
func WeightedCalc(value, rate float64) float64 {
	return RoundToTwo(SafeMult(value, rate))
}
