package audio

const (
	delayMaxMs = 2000.0
	delayCross = 0.3
)

// stereoDelay is a feedback delay with a little cross-channel feed. The
// buffer covers the longest delay time; the tap position moves with the
// parameter so time changes need no reallocation.
type stereoDelay struct {
	bufL, bufR []float64
	pos        int
	size       int
	tap        int
	feedback   float64
	mix        float64
}

func newStereoDelay() *stereoDelay {
	size := int(delayMaxMs*float64(sampleRate)/1000) + 1
	return &stereoDelay{
		bufL: make([]float64, size),
		bufR: make([]float64, size),
		size: size,
	}
}

func (d *stereoDelay) prepare(timeMs float64, feedback float64, mix float64) {
	tap := int(timeMs * float64(sampleRate) / 1000)
	if tap < 1 {
		tap = 1
	} else if tap >= d.size {
		tap = d.size - 1
	}
	d.tap = tap
	d.feedback = feedback
	d.mix = mix
}

func (d *stereoDelay) process(l, r float64) (float64, float64) {
	readPos := d.pos - d.tap
	if readPos < 0 {
		readPos += d.size
	}
	delL := d.bufL[readPos]
	delR := d.bufR[readPos]
	fbL := delL*d.feedback*(1-delayCross) + delR*d.feedback*delayCross
	fbR := delR*d.feedback*(1-delayCross) + delL*d.feedback*delayCross
	d.bufL[d.pos] = l + fbL
	d.bufR[d.pos] = r + fbR
	d.pos++
	if d.pos >= d.size {
		d.pos = 0
	}
	return l*(1-d.mix) + delL*d.mix, r*(1-d.mix) + delR*d.mix
}

func (d *stereoDelay) reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}
