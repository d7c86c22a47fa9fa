// Package utils contains small numeric and error helpers shared across packages.
package utils

import (
	"math"
)

// DefaultEpsilon is the tolerance used when comparing floats that came out of trigonometry.
const DefaultEpsilon = 1e-6

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less
// than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// WrapAngle returns the equivalent angle in (-pi, pi].
func WrapAngle(theta float64) float64 {
	wrapped := math.Mod(theta, 2*math.Pi)
	switch {
	case wrapped > math.Pi:
		wrapped -= 2 * math.Pi
	case wrapped <= -math.Pi:
		wrapped += 2 * math.Pi
	}
	return wrapped
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}
