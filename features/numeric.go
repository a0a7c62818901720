package features

import "math"

// outputDecimals is the precision most features report.
const outputDecimals = 8

// TruncateToDecimal drops every digit past the given number of decimal
// places, rounding toward zero.
func TruncateToDecimal(num float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Trunc(num*multiplier) / multiplier
}

func truncate(v float64) float64 {
	return TruncateToDecimal(v, outputDecimals)
}
