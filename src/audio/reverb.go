package audio

// Schroeder topology: four parallel combs into two serial allpasses. Comb
// lengths use prime-ish ratios to avoid stacked resonances. Damping is a one
// pole lowpass inside each comb's feedback path.
const (
	reverbMinBase         = 480
	reverbMaxBase         = 2400
	reverbAllpassFeedback = 0.5
)

var reverbCombRatios = [4]int{1000, 1117, 1271, 1437}
var reverbAllpassRatios = [2]int{347, 213}

type reverbComb struct {
	buf    []float64
	pos    int
	length int
	store  float64
}

func (c *reverbComb) process(in float64, feedback float64, damp float64) float64 {
	out := c.buf[c.pos]
	c.store = out*(1-damp) + c.store*damp
	c.buf[c.pos] = in + c.store*feedback
	c.pos++
	if c.pos >= c.length {
		c.pos = 0
	}
	return out
}

type reverbAllpass struct {
	buf    []float64
	pos    int
	length int
}

func (a *reverbAllpass) process(in float64) float64 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*reverbAllpassFeedback
	a.pos++
	if a.pos >= a.length {
		a.pos = 0
	}
	return out
}

type reverb struct {
	combs    [4]reverbComb
	allpass  [2]reverbAllpass
	size     float64
	feedback float64
	damp     float64
	mix      float64
}

func newReverb() *reverb {
	r := &reverb{size: -1}
	for i := range r.combs {
		r.combs[i].buf = make([]float64, reverbMaxBase*reverbCombRatios[i]/1000+1)
	}
	for i := range r.allpass {
		r.allpass[i].buf = make([]float64, reverbMaxBase*reverbAllpassRatios[i]/1000+1)
	}
	return r
}

func (r *reverb) prepare(size float64, damp float64, mix float64) {
	r.damp = damp
	r.mix = mix
	if size == r.size {
		return
	}
	r.size = size
	base := reverbMinBase + int(size*float64(reverbMaxBase-reverbMinBase))
	for i := range r.combs {
		r.combs[i].length = base * reverbCombRatios[i] / 1000
		if r.combs[i].pos >= r.combs[i].length {
			r.combs[i].pos = 0
		}
	}
	for i := range r.allpass {
		r.allpass[i].length = base * reverbAllpassRatios[i] / 1000
		if r.allpass[i].pos >= r.allpass[i].length {
			r.allpass[i].pos = 0
		}
	}
	r.feedback = 0.7 + 0.25*size
}

func (r *reverb) process(l, rr float64) (float64, float64) {
	mono := (l + rr) * 0.5
	out := 0.0
	for i := range r.combs {
		out += r.combs[i].process(mono, r.feedback, r.damp)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	return l*(1-r.mix) + out*r.mix, rr*(1-r.mix) + out*r.mix
}

func (r *reverb) reset() {
	for i := range r.combs {
		c := &r.combs[i]
		for j := range c.buf {
			c.buf[j] = 0
		}
		c.pos = 0
		c.store = 0
	}
	for i := range r.allpass {
		a := &r.allpass[i]
		for j := range a.buf {
			a.buf[j] = 0
		}
		a.pos = 0
	}
	r.size = -1
}
