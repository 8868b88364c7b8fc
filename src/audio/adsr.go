package audio

import "math"

// ----- Transitive Value ----- //

const (
	transitionNone = iota
	transitionLinear
	transitionExponential
)

type transitiveValue struct {
	kind         int
	duration     float64 // ms
	endThreshold float64
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
}

func (tv *transitiveValue) init(value float64) {
	tv.kind = transitionNone
	tv.duration = 0
	tv.endThreshold = 0
	tv.initialValue = 0
	tv.targetValue = 0
	tv.value = value
	tv.pos = 0
}

func (tv *transitiveValue) linear(duration float64, targetValue float64) {
	tv.kind = transitionLinear
	tv.duration = duration
	tv.endThreshold = 0
	tv.pos = 0
	tv.initialValue = tv.value
	tv.targetValue = targetValue
}
func (tv *transitiveValue) exponential(duration float64, targetValue float64, endThreshold float64) {
	tv.kind = transitionExponential
	tv.duration = duration
	tv.endThreshold = endThreshold
	tv.pos = 0
	tv.initialValue = tv.value
	tv.targetValue = targetValue
}
func (tv *transitiveValue) step() bool {
	ended := false
	switch tv.kind {
	case transitionLinear:
		phaseTime := float64(tv.pos) * secPerSample * 1000 // ms
		if phaseTime >= tv.duration {
			tv.end()
			ended = true
		} else {
			t := phaseTime / tv.duration
			tv.value = t*tv.targetValue + (1-t)*tv.initialValue
			tv.pos++
		}
	case transitionExponential:
		phaseTime := float64(tv.pos) * secPerSample * 1000 // ms
		t := phaseTime / tv.duration
		tv.value = setTargetAtTime(tv.initialValue, tv.targetValue, t)
		if math.Abs(tv.value-tv.targetValue) < tv.endThreshold {
			tv.end()
			ended = true
		} else {
			tv.pos++
		}
	case transitionNone:

	}
	return ended
}
func (tv *transitiveValue) end() {
	tv.kind = transitionNone
	tv.value = tv.targetValue
	tv.pos = 0
}

// 63% closer to target when pos=1.0
func setTargetAtTime(initialValue float64, targetValue float64, pos float64) float64 {
	return targetValue + (initialValue-targetValue)*math.Exp(-pos)
}

// ----- ADSR ----- //

const (
	phaseNone = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

const envEndThreshold = 0.001

// adsrControls carries envelope times resolved once per quantum. Times are in
// milliseconds, sustain is 0-1, curved selects exponential segments over
// linear ones.
type adsrControls struct {
	attack  float64
	decay   float64
	sustain float64
	release float64
	curved  bool
}

/*
  1 +   x
    |  / \
  s | /   x------x
    |/            \
  0 +-+--+-+------+---
    |a   |d|      |r|
*/
type adsr struct {
	value          float64
	phase          int
	phasePos       int
	valueAtNoteOn  float64
	valueAtNoteOff float64
}

func (a *adsr) init() {
	a.value = 0
	a.phase = phaseNone
	a.phasePos = 0
	a.valueAtNoteOn = 0
	a.valueAtNoteOff = 0
}

func (a *adsr) noteOn() {
	a.phase = phaseAttack
	a.phasePos = 0
	a.valueAtNoteOn = a.value
}

func (a *adsr) noteOff() {
	a.phase = phaseRelease
	a.phasePos = 0
	a.valueAtNoteOff = a.value
}

func (a *adsr) active() bool {
	return a.phase != phaseNone
}

func (a *adsr) step(c *adsrControls) {
	phaseTime := float64(a.phasePos) * secPerSample * 1000 // ms
	switch a.phase {
	case phaseAttack:
		ended := false
		if c.attack == 0 {
			ended = true
		} else if c.curved {
			t := phaseTime / c.attack
			a.value = setTargetAtTime(a.valueAtNoteOn, 1, t)
			if math.Abs(a.value-1) < envEndThreshold {
				ended = true
			}
		} else {
			t := phaseTime / c.attack
			if t >= 1 {
				ended = true
			} else {
				a.value = t + (1-t)*a.valueAtNoteOn
			}
		}
		if ended {
			a.phase = phaseDecay
			a.phasePos = 0
			a.value = 1
		} else {
			a.phasePos++
		}
	case phaseDecay:
		ended := false
		if c.decay == 0 {
			ended = true
		} else if c.curved {
			t := phaseTime / c.decay
			a.value = setTargetAtTime(1, c.sustain, t)
			if math.Abs(a.value-c.sustain) < envEndThreshold {
				ended = true
			}
		} else {
			t := phaseTime / c.decay
			if t >= 1 {
				ended = true
			} else {
				a.value = c.sustain*t + (1 - t)
			}
		}
		if ended {
			a.phase = phaseSustain
			a.phasePos = 0
			a.value = c.sustain
		} else {
			a.phasePos++
		}
	case phaseSustain:
		a.value = c.sustain
	case phaseRelease:
		ended := false
		if c.release == 0 {
			ended = true
		} else if c.curved {
			t := phaseTime / c.release
			a.value = setTargetAtTime(a.valueAtNoteOff, 0, t)
			if math.Abs(a.value) < envEndThreshold {
				ended = true
			}
		} else {
			t := phaseTime / c.release
			if t >= 1 {
				ended = true
			} else {
				a.value = (1 - t) * a.valueAtNoteOff
			}
		}
		if ended {
			a.phase = phaseNone
			a.phasePos = 0
			a.value = 0
		} else {
			a.phasePos++
		}
	default:
		a.value = 0
	}
}
