package audio

import "math"

// Han applies a Hann window in place, taming spectral leakage before the
// analysis transform.
func Han(data []float64) {
	n := float64(len(data))
	for i := range data {
		data[i] *= 0.5 - 0.5*math.Cos(2.0*math.Pi*float64(i)/n)
	}
}
