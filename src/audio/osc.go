package audio

import "math"

// ----- Note / frequency helpers ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

func freqToNote(freq float64) int {
	note := int(math.Floor(12*math.Log2(freq/baseFreq))) + 69
	if note < 0 {
		note = 0
	} else if note > 127 {
		note = 127
	}
	return note
}

func positiveMod(a float64, b float64) float64 {
	value := math.Mod(a, b)
	if value < 0 {
		value += b
	}
	return value
}

// rng64 is a xorshift generator owned by one oscillator. The global rand
// source takes a lock, which the render path must not.
type rng64 struct {
	state uint64
}

func (r *rng64) next() float64 {
	if r.state == 0 {
		r.state = 0x9e3779b97f4a7c15
	}
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return float64(x>>11) / float64(1<<53)
}

// ----- Granular source ----- //

// granularSource is the shared sample buffer grains read from. It is
// immutable after construction; the engine swaps whole buffers atomically.
type granularSource struct {
	values []float64
}

func newGranularSource(values []float64) *granularSource {
	return &granularSource{values: values}
}

// newDefaultGranularSource builds a one second evolving pad so granular mode
// produces sound before any buffer has been loaded.
func newDefaultGranularSource() *granularSource {
	values := make([]float64, sampleRate)
	for i := range values {
		t := float64(i) / sampleRate
		v := 0.5 * math.Sin(2*math.Pi*110*t)
		v += 0.3 * math.Sin(2*math.Pi*165*t+0.5)
		v += 0.2 * math.Sin(2*math.Pi*220*t*(1+0.02*math.Sin(2*math.Pi*0.5*t)))
		values[i] = v * 0.6
	}
	return newGranularSource(values)
}

// ----- Oscillator ----- //

const maxGrains = 16

type grain struct {
	active bool
	pos    float64
	step   float64
	age    int
	length int
}

// oscControls carries one oscillator slot's values resolved once per quantum.
type oscControls struct {
	mode          int
	level         float64
	freqScale     float64
	ratio         float64
	index         float64
	morph         float64
	grainDensity  float64
	grainDuration float64
	grainPosition float64
	grainPosVar   float64
	grainPitchVar float64
}

type oscillator struct {
	note     int
	freq     float64
	phase    float64
	modPhase float64
	modPrev  float64
	rnd      rng64
	grains   [maxGrains]grain
	grainGap float64
}

func (o *oscillator) initWithNote(note int) {
	o.note = note
	o.freq = noteToFreq(note)
	o.phase = o.rnd.next() * 2.0 * math.Pi
	o.modPhase = 0
	o.modPrev = 0
	o.grainGap = 0
	for i := range o.grains {
		o.grains[i].active = false
	}
}

func (o *oscillator) step(c *oscControls, src *granularSource) float64 {
	if c.mode == oscOff || c.level == 0 {
		return 0.0
	}
	freq := o.freq * c.freqScale
	value := 0.0
	switch c.mode {
	case oscSine:
		value = math.Sin(o.phase)
	case oscTriangle:
		value = bltriangleWT.tables[freqToNote(freq)].getAtPhase(o.phase)
	case oscSaw:
		value = blsawWT.tables[freqToNote(freq)].getAtPhase(o.phase)
	case oscSquare:
		value = blsquareWT.tables[freqToNote(freq)].getAtPhase(o.phase)
	case oscFM:
		value = o.stepFM(freq, c.ratio, c.index)
	case oscWavetable:
		value = defaultMorphTable.getAtPhase(c.morph, freqToNote(freq), o.phase)
	case oscGranular:
		value = o.stepGranular(c, src)
	}
	o.phase += 2.0 * math.Pi * freq / float64(sampleRate)
	if o.phase >= 2.0*math.Pi {
		o.phase -= 2.0 * math.Pi
	}
	return value * c.level
}

// Two operators in a fixed chain. The modulator feeds the carrier and its own
// previous output; ratios and index come from the parameter snapshot, so the
// graph cannot change shape mid-note.
func (o *oscillator) stepFM(freq float64, ratio float64, index float64) float64 {
	mod := math.Sin(o.modPhase + fmFeedback*o.modPrev)
	o.modPrev = mod
	o.modPhase += 2.0 * math.Pi * freq * ratio / float64(sampleRate)
	if o.modPhase >= 2.0*math.Pi {
		o.modPhase -= 2.0 * math.Pi
	}
	return math.Sin(o.phase + index*mod)
}

const fmFeedback = 0.15

func (o *oscillator) stepGranular(c *oscControls, src *granularSource) float64 {
	if len(src.values) == 0 {
		return 0.0
	}
	o.grainGap--
	if o.grainGap <= 0 {
		o.launchGrain(c, src)
		o.grainGap += float64(sampleRate) / c.grainDensity
	}
	sum := 0.0
	last := float64(len(src.values) - 1)
	for i := range o.grains {
		g := &o.grains[i]
		if !g.active {
			continue
		}
		t := float64(g.age) / float64(g.length)
		window := 0.5 * (1 - math.Cos(2*math.Pi*t))
		idx := int(g.pos)
		frac := g.pos - float64(idx)
		next := idx + 1
		if next >= len(src.values) {
			next = 0
		}
		sum += (src.values[idx]*(1-frac) + src.values[next]*frac) * window
		g.pos += g.step
		g.age++
		if g.age >= g.length || g.pos >= last {
			g.active = false
		}
	}
	return sum * 0.5
}

func (o *oscillator) launchGrain(c *oscControls, src *granularSource) {
	for i := range o.grains {
		g := &o.grains[i]
		if g.active {
			continue
		}
		position := c.grainPosition + (o.rnd.next()*2-1)*c.grainPosVar
		if position < 0 {
			position = 0
		} else if position > 1 {
			position = 1
		}
		pitch := o.freq / noteToFreq(60)
		if c.grainPitchVar > 0 {
			pitch *= math.Pow(2, (o.rnd.next()*2-1)*c.grainPitchVar/12)
		}
		length := int(c.grainDuration / 1000 * sampleRate)
		if length < 1 {
			length = 1
		}
		g.pos = position * float64(len(src.values)-1)
		g.step = pitch
		g.age = 0
		g.length = length
		g.active = true
		return
	}
}
