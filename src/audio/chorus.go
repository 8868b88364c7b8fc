package audio

import "math"

const (
	chorusBaseDelayMs = 15.0
	chorusMaxDepthMs  = 8.0
)

// chorus reads a modulated fractional tap from a short delay line. Rate,
// depth and mix follow the parameter snapshot at quantum rate.
type chorus struct {
	bufL, bufR []float64
	pos        int
	size       int
	phase      float64
	rate       float64 // radians per sample
	depth      float64 // samples
	mix        float64
}

func newChorus() *chorus {
	size := int((chorusBaseDelayMs+chorusMaxDepthMs)*float64(sampleRate)/1000) + 2
	return &chorus{
		bufL: make([]float64, size),
		bufR: make([]float64, size),
		size: size,
	}
}

func (c *chorus) prepare(rateHz float64, depth float64, mix float64) {
	c.rate = 2 * math.Pi * rateHz / float64(sampleRate)
	c.depth = depth * chorusMaxDepthMs * float64(sampleRate) / 1000
	c.mix = mix
}

func (c *chorus) process(l, r float64) (float64, float64) {
	mod := math.Sin(c.phase) * c.depth
	c.phase += c.rate
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	c.bufL[c.pos] = l
	c.bufR[c.pos] = r

	delay := chorusBaseDelayMs*float64(sampleRate)/1000 + mod
	readPos := float64(c.pos) - delay
	for readPos < 0 {
		readPos += float64(c.size)
	}
	idx := int(readPos)
	frac := readPos - float64(idx)
	idx2 := idx + 1
	if idx2 >= c.size {
		idx2 = 0
	}
	wetL := c.bufL[idx]*(1-frac) + c.bufL[idx2]*frac
	wetR := c.bufR[idx]*(1-frac) + c.bufR[idx2]*frac

	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
	return l*(1-c.mix) + wetL*c.mix, r*(1-c.mix) + wetR*c.mix
}

func (c *chorus) reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.pos = 0
	c.phase = 0
}
