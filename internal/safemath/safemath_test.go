package safemath_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agropesa/backend-balanza/internal/safemath"
)

func TestSafeAdd(t *testing.T) {
	require.Equal(t, 0.3, safemath.SafeAdd(0.1, 0.2))
	require.Equal(t, 0.0, safemath.SafeAdd(0, 0))
	require.Equal(t, 150.0, safemath.SafeAdd(100, 50))
	require.Equal(t, 12.3, safemath.SafeAdd(10.1, 2.2))
}

func TestSafeSub(t *testing.T) {
	require.Equal(t, 0.1, safemath.SafeSub(0.3, 0.2))
	require.Equal(t, 275.0, safemath.SafeSub(350, 75))
	require.Equal(t, -0.5, safemath.SafeSub(1.0, 1.5))
}

func TestSafeMult(t *testing.T) {
	require.Equal(t, 15.825, safemath.SafeMult(10.55, 1.5))
	require.Equal(t, 0.02, safemath.SafeMult(0.1, 0.2))
	require.Equal(t, 200.0, safemath.SafeMult(100, 2.0))
	require.Equal(t, 75.0, safemath.SafeMult(150, 0.5))
}

func TestRoundToTwo(t *testing.T) {
	// Boundary values are pinned to the observed half-adjustment
	// behavior; downstream amounts must match these bit-for-bit.
	cases := []struct {
		in, want float64
	}{
		{2.345, 2.35},
		{2.355, 2.36},
		{2.675, 2.68},
		{1.005, 1.01},
		{15.825, 15.83},
		{295.0, 295.0},
		{0.0, 0.0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, safemath.RoundToTwo(tc.in), "RoundToTwo(%v)", tc.in)
	}
}

func TestSafeSum(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = 0.1
	}
	require.Equal(t, 1.0, safemath.SafeSum(values))
	require.Equal(t, 0.0, safemath.SafeSum(nil))
	require.Equal(t, 37.7, safemath.SafeSum([]float64{12.5, 10.1, 15.1}))
}

func TestWeightedCalc(t *testing.T) {
	require.Equal(t, 15.83, safemath.WeightedCalc(10.55, 1.5))
	require.Equal(t, 200.0, safemath.WeightedCalc(100, 2.0))
	require.Equal(t, 0.0, safemath.WeightedCalc(0, 3.5))
}
