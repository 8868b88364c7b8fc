package audio

// Band split at 250 Hz and 4 kHz, matching the analysis bands.
const (
	eqLowFreq  = 250.0
	eqHighFreq = 4000.0
	eqShelfQ   = 0.707
	eqPeakQ    = 0.8
)

// threeBandEQ runs a low shelf, a mid peak and a high shelf per channel with
// coefficients from the cookbook makers. Coefficients are rebuilt only when a
// gain changes.
type threeBandEQ struct {
	low, mid, high    float64
	lowL, midL, highL biquad
	lowR, midR, highR biquad
	dirty             bool
}

func newThreeBandEQ() *threeBandEQ {
	eq := &threeBandEQ{dirty: true}
	return eq
}

func (eq *threeBandEQ) prepare(low, mid, high float64) {
	if !eq.dirty && low == eq.low && mid == eq.mid && high == eq.high {
		return
	}
	eq.low, eq.mid, eq.high = low, mid, high
	eq.dirty = false
	midFreq := eqLowFreq * 4 // geometric-ish center of the mid band
	b, a := makeBiquadLowShelfH(eqLowFreq/float64(sampleRate), eqShelfQ, low)
	eq.lowL.setCoefs(b, a)
	eq.lowR.setCoefs(b, a)
	b, a = makeBiquadPeakingEQH(midFreq/float64(sampleRate), eqPeakQ, mid)
	eq.midL.setCoefs(b, a)
	eq.midR.setCoefs(b, a)
	b, a = makeBiquadHighShelfH(eqHighFreq/float64(sampleRate), eqShelfQ, high)
	eq.highL.setCoefs(b, a)
	eq.highR.setCoefs(b, a)
}

func (eq *threeBandEQ) process(l, r float64) (float64, float64) {
	l = eq.highL.process(eq.midL.process(eq.lowL.process(l)))
	r = eq.highR.process(eq.midR.process(eq.lowR.process(r)))
	return l, r
}

func (eq *threeBandEQ) reset() {
	eq.lowL.reset()
	eq.midL.reset()
	eq.highL.reset()
	eq.lowR.reset()
	eq.midR.reset()
	eq.highR.reset()
	eq.dirty = true
}
