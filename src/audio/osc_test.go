package audio

import (
	"math"
	"testing"
)

func renderOsc(t *testing.T, mode int, note int, samples int) []float64 {
	t.Helper()
	o := &oscillator{}
	o.initWithNote(note)
	c := &oscControls{
		mode:          mode,
		level:         1,
		freqScale:     1,
		ratio:         2,
		index:         1.5,
		morph:         0.5,
		grainDensity:  20,
		grainDuration: 80,
		grainPosition: 0.3,
		grainPosVar:   0.1,
	}
	src := newDefaultGranularSource()
	out := make([]float64, samples)
	for i := range out {
		out[i] = o.step(c, src)
	}
	return out
}

func TestOscAmplitudeBounds(t *testing.T) {
	modes := []int{oscSine, oscTriangle, oscSaw, oscSquare, oscFM, oscWavetable, oscGranular}
	notes := []int{21, 60, 96, 120}
	for _, mode := range modes {
		for _, note := range notes {
			out := renderOsc(t, mode, note, sampleRate/10)
			peak := 0.0
			for _, v := range out {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("mode %d note %d produced non-finite output", mode, note)
				}
				if abs := math.Abs(v); abs > peak {
					peak = abs
				}
			}
			if peak > 1.5 {
				t.Errorf("mode %d note %d peak %f exceeds bound", mode, note, peak)
			}
			if peak == 0 {
				t.Errorf("mode %d note %d produced silence", mode, note)
			}
		}
	}
}

func TestOscOffProducesSilence(t *testing.T) {
	out := renderOsc(t, oscOff, 60, 100)
	for _, v := range out {
		expectEqual(t, v, 0.0)
	}
}

func TestOscPhaseWraps(t *testing.T) {
	o := &oscillator{}
	o.initWithNote(108) // high note, fast accumulation
	c := &oscControls{mode: oscSine, level: 1, freqScale: 1}
	src := newDefaultGranularSource()
	for i := 0; i < sampleRate; i++ {
		o.step(c, src)
		if o.phase < 0 || o.phase >= 2*math.Pi+1e-9 {
			t.Fatalf("phase escaped its cycle: %f", o.phase)
		}
	}
}

func TestNoteToFreq(t *testing.T) {
	expectNearlyEqual(t, noteToFreq(69), 440)
	expectNearlyEqual(t, noteToFreq(81), 880)
	expectNearlyEqual(t, noteToFreq(57), 220)
	expectEqual(t, freqToNote(440), 69)
	expectEqual(t, freqToNote(880), 81)
}

func TestBandLimitedTablesStayBelowNyquist(t *testing.T) {
	// The table for a high note must carry fewer partials than a low one.
	const n = 2048
	fft := NewFFT(n, false)
	energyAbove := func(note int, limit float64) float64 {
		x := make([]float64, n)
		table := blsawWT.tables[note]
		for i := range x {
			phase := 2 * math.Pi * float64(i) / n
			x[i] = table.getAtPhase(phase)
		}
		fft.CalcAbs(x)
		sum := 0.0
		for i := int(limit); i < n/2; i++ {
			sum += x[i]
		}
		return sum
	}
	freq := noteToFreq(108)
	maxPartials := float64(int(sampleRate / 2 / freq))
	if above := energyAbove(108, maxPartials+1.5); above > 1e-6 {
		t.Errorf("high-note table carries energy above its partial limit: %f", above)
	}
}

func TestGranularRespectsSourceBounds(t *testing.T) {
	o := &oscillator{}
	o.initWithNote(60)
	c := &oscControls{
		mode:          oscGranular,
		level:         1,
		freqScale:     1,
		grainDensity:  100,
		grainDuration: 500,
		grainPosition: 1, // grains launch at the very end of the buffer
		grainPosVar:   1,
		grainPitchVar: 12,
	}
	src := newGranularSource(make([]float64, sampleRate/10))
	for i := 0; i < sampleRate/2; i++ {
		v := o.step(c, src)
		if math.IsNaN(v) {
			t.Fatal("granular produced NaN")
		}
	}
}
