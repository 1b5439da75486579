package sentiment

import "strconv"

// round rounds x to the given number of decimals, half to even on the exact
// binary value.
func round(x float64, decimals int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	if v == 0 {
		// drop the sign of negative zero
		return 0
	}
	return v
}
