package audio

import "math"

// ----- Voice filter ----- //

// voiceFilter is a topology-preserving-transform state variable filter after
// Simper. Coefficients are prepared once per quantum and only rebuilt when a
// setting moved; process runs per sample with two integrator states and no
// transcendental calls.
type voiceFilter struct {
	mode      int
	cutoff    float64
	resonance float64
	k         float64
	a1        float64
	a2        float64
	a3        float64
	ic1eq     float64
	ic2eq     float64
}

func (f *voiceFilter) init() {
	f.mode = filterOff
	f.cutoff = -1
	f.resonance = -1
	f.ic1eq = 0
	f.ic2eq = 0
}

func (f *voiceFilter) prepare(mode int, cutoff float64, resonance float64) {
	if mode == f.mode && cutoff == f.cutoff && resonance == f.resonance {
		return
	}
	f.mode = mode
	f.cutoff = cutoff
	f.resonance = resonance
	if mode == filterOff {
		return
	}
	ratio := cutoff / float64(sampleRate)
	if ratio < 0 {
		ratio = 0
	} else if ratio > 0.499 {
		ratio = 0.499
	}
	g := math.Tan(math.Pi * ratio)
	// resonance 0..1 maps to Q 0.5..10
	q := 0.5 * math.Pow(20, resonance)
	f.k = 1 / q
	denom := 1 + g*(g+f.k)
	f.a1 = 1 / denom
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

func (f *voiceFilter) process(x float64) float64 {
	if f.mode == filterOff {
		return x
	}
	v3 := x - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3
	f.ic1eq = 2*v1 - f.ic1eq
	f.ic2eq = 2*v2 - f.ic2eq
	lp := v2
	bp := v1
	hp := x - f.k*bp - lp
	switch f.mode {
	case filterLowPass:
		return lp
	case filterHighPass:
		return hp
	case filterBandPass:
		return bp
	case filterNotch:
		return lp + hp
	}
	return x
}

// ----- Biquad (RBJ cookbook) ----- //

// biquad runs direct form I with coefficients from the cookbook makers below.
// fc is normalized frequency (hz / sampleRate).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func (bq *biquad) setCoefs(b []float64, a []float64) {
	bq.b0, bq.b1, bq.b2 = b[0], b[1], b[2]
	bq.a1, bq.a2 = a[0], a[1]
}

func (bq *biquad) process(x float64) float64 {
	y := bq.b0*x + bq.b1*bq.x1 + bq.b2*bq.x2 - bq.a1*bq.y1 - bq.a2*bq.y2
	bq.x2 = bq.x1
	bq.x1 = x
	bq.y2 = bq.y1
	bq.y1 = y
	return y
}

func (bq *biquad) reset() {
	bq.x1, bq.x2, bq.y1, bq.y2 = 0, 0, 0, 0
}

func makeBiquadPeakingEQH(fc float64, q float64, dBgain float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	A := math.Pow(10, dBgain/40)
	b0 := 1 + alpha*A
	b1 := -2 * math.Cos(w0)
	b2 := 1 - alpha*A
	a0 := 1 + alpha/A
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha/A
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadLowShelfH(fc float64, q float64, dBgain float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	A := math.Pow(10, dBgain/40)
	b0 := A * ((A + 1) - (A-1)*math.Cos(w0) + 2*math.Sqrt(A)*alpha)
	b1 := 2 * A * ((A - 1) - (A+1)*math.Cos(w0))
	b2 := A * ((A + 1) - (A-1)*math.Cos(w0) - 2*math.Sqrt(A)*alpha)
	a0 := (A + 1) + (A-1)*math.Cos(w0) + 2*math.Sqrt(A)*alpha
	a1 := -2 * ((A - 1) + (A+1)*math.Cos(w0))
	a2 := (A + 1) + (A-1)*math.Cos(w0) - 2*math.Sqrt(A)*alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadHighShelfH(fc float64, q float64, dBgain float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	A := math.Pow(10, dBgain/40)
	b0 := A * ((A + 1) + (A-1)*math.Cos(w0) + 2*math.Sqrt(A)*alpha)
	b1 := -2 * A * ((A - 1) + (A+1)*math.Cos(w0))
	b2 := A * ((A + 1) + (A-1)*math.Cos(w0) - 2*math.Sqrt(A)*alpha)
	a0 := (A + 1) - (A-1)*math.Cos(w0) + 2*math.Sqrt(A)*alpha
	a1 := 2 * ((A - 1) - (A+1)*math.Cos(w0))
	a2 := (A + 1) - (A-1)*math.Cos(w0) - 2*math.Sqrt(A)*alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}
