package audio

import "math"

// LFO waves (paramLfoNWave).
const (
	lfoWaveSine = iota
	lfoWaveTriangle
	lfoWaveSaw
	lfoWaveSquare
	lfoWaveRandom
)

// lfoUnit is one engine-wide low frequency oscillator. It advances once per
// quantum; modulation is resolved at quantum rate, not per sample.
type lfoUnit struct {
	phase float64
	held  float64
	rnd   rng64
}

func (l *lfoUnit) init() {
	l.phase = 0
	l.held = l.rnd.next()*2 - 1
}

// advance moves the phase by frames samples and returns the bipolar output
// for the quantum.
func (l *lfoUnit) advance(wave int, rateHz float64, frames int) float64 {
	l.phase += rateHz * float64(frames) / float64(sampleRate)
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
		if wave == lfoWaveRandom {
			l.held = l.rnd.next()*2 - 1
		}
	}
	switch wave {
	case lfoWaveSine:
		return math.Sin(2 * math.Pi * l.phase)
	case lfoWaveTriangle:
		if l.phase < 0.5 {
			return l.phase*4 - 1
		}
		return l.phase*(-4) + 3
	case lfoWaveSaw:
		return l.phase*2 - 1
	case lfoWaveSquare:
		if l.phase < 0.5 {
			return 1
		}
		return -1
	case lfoWaveRandom:
		return l.held
	}
	return 0
}

// lfoRate returns the effective rate in Hz, honoring tempo sync. A quarter
// note at the given tempo is tempo/60 cycles per second.
func lfoRate(sync int, freeRate float64, tempo float64) float64 {
	switch sync {
	case lfoSyncWhole:
		return tempo / 240
	case lfoSyncHalf:
		return tempo / 120
	case lfoSyncQuarter:
		return tempo / 60
	case lfoSyncEighth:
		return tempo / 30
	case lfoSyncSixteenth:
		return tempo / 15
	}
	return freeRate
}
