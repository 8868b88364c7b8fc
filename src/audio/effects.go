package audio

import "math"

// effector processes one stereo sample. Buffers are sized at construction;
// runtime settings arrive through prepare calls at quantum rate so nothing
// allocates on the render path.
type effector interface {
	process(l, r float64) (float64, float64)
	reset()
}

type chainEntry struct {
	fx       effector
	enableID int // -1 means always on
	enabled  bool
}

// effectsChain runs EQ, drive, chorus, delay and reverb in a fixed order with
// the limiter last. A disabled stage is skipped entirely so bypass passes
// samples through untouched.
type effectsChain struct {
	eq      *threeBandEQ
	drive   *drive
	chorus  *chorus
	delay   *stereoDelay
	reverb  *reverb
	limiter *limiter
	entries []chainEntry
}

func newEffectsChain() *effectsChain {
	c := &effectsChain{
		eq:      newThreeBandEQ(),
		drive:   &drive{},
		chorus:  newChorus(),
		delay:   newStereoDelay(),
		reverb:  newReverb(),
		limiter: &limiter{},
	}
	c.entries = []chainEntry{
		{fx: c.eq, enableID: paramEQEnabled},
		{fx: c.drive, enableID: paramDriveEnabled},
		{fx: c.chorus, enableID: paramChorusEnabled},
		{fx: c.delay, enableID: paramDelayEnabled},
		{fx: c.reverb, enableID: paramReverbEnabled},
		{fx: c.limiter, enableID: -1},
	}
	return c
}

// prepare pulls the quantum's settings out of the snapshot. offsets carries
// the resolved global modulation.
func (c *effectsChain) prepare(snap *paramValues, offsets *paramValues) {
	mod := func(id int) float64 {
		return moddedParam(snap, offsets, id)
	}
	for i := range c.entries {
		e := &c.entries[i]
		e.enabled = e.enableID < 0 || snap[e.enableID] >= 0.5
	}
	c.eq.prepare(mod(paramEQLowGain), mod(paramEQMidGain), mod(paramEQHighGain))
	c.drive.prepare(mod(paramDriveGain), mod(paramDriveMix))
	c.chorus.prepare(mod(paramChorusRate), mod(paramChorusDepth), mod(paramChorusMix))
	c.delay.prepare(mod(paramDelayTime), mod(paramDelayFeedback), mod(paramDelayMix))
	c.reverb.prepare(snap[paramReverbSize], mod(paramReverbDamp), mod(paramReverbMix))
	c.limiter.prepare(snap[paramLimiterCeiling], snap[paramLimiterRelease])
}

func (c *effectsChain) process(l, r float64) (float64, float64) {
	for i := range c.entries {
		e := &c.entries[i]
		if !e.enabled {
			continue
		}
		l, r = e.fx.process(l, r)
	}
	return l, r
}

func (c *effectsChain) reset() {
	for i := range c.entries {
		c.entries[i].fx.reset()
	}
}

// ----- Drive ----- //

// drive is tanh waveshaping with a dry/wet mix. Gain compensation keeps the
// wet level comparable to the dry signal.
type drive struct {
	gain float64
	mix  float64
	comp float64
}

func (d *drive) prepare(gain float64, mix float64) {
	d.gain = gain
	d.mix = mix
	d.comp = 1 / math.Tanh(gain)
}

func (d *drive) process(l, r float64) (float64, float64) {
	wetL := math.Tanh(l*d.gain) * d.comp
	wetR := math.Tanh(r*d.gain) * d.comp
	return l*(1-d.mix) + wetL*d.mix, r*(1-d.mix) + wetR*d.mix
}

func (d *drive) reset() {}

// ----- Limiter ----- //

// limiter is a brick wall on the chain output. The envelope tracks the peak
// of both channels and gain is pulled down whenever it crosses the ceiling.
type limiter struct {
	ceiling float64 // linear
	release float64 // per-sample decay coefficient
	env     float64
}

func (lim *limiter) prepare(ceilingDB float64, releaseMs float64) {
	lim.ceiling = math.Pow(10, ceilingDB/20)
	lim.release = math.Exp(-1 / (releaseMs / 1000 * float64(sampleRate)))
}

func (lim *limiter) process(l, r float64) (float64, float64) {
	peak := math.Abs(l)
	if ar := math.Abs(r); ar > peak {
		peak = ar
	}
	if peak > lim.env {
		lim.env = peak
	} else {
		lim.env = peak + (lim.env-peak)*lim.release
	}
	if lim.env > lim.ceiling {
		g := lim.ceiling / lim.env
		l *= g
		r *= g
	}
	return l, r
}

func (lim *limiter) reset() {
	lim.env = 0
}
