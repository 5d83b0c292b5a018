package timecourse

import "math"

// squaredExponential evaluates the squared-exponential kernel
// noiseFreeScale * exp(-(ti-tj)^2 / (2*lengthScale^2)).
func squaredExponential(ti, tj, lengthScale, noiseFreeScale float64) float64 {
	d := ti - tj
	return noiseFreeScale * math.Exp(-(d*d)/(2*lengthScale*lengthScale))
}
