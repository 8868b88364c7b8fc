package audio

import "math"

const stealFadeMs = 3.0

// quantumContext bundles the immutable snapshots one render quantum works
// from. It is filled once at the top of the quantum and shared by every
// voice.
type quantumContext struct {
	snap      *paramValues
	routes    *routeSet
	src       *granularSource
	sources   modSources // lfo and aftertouch slots filled by the engine
	bendRatio float64
}

// ----- Voice ----- //

type voice struct {
	note       int
	velocity   float64
	serial     uint64
	releasedAt uint64 // 0 while held

	oscs   [numOscSlots]oscillator
	filter voiceFilter
	amp    adsr
	aux    adsr

	offsets  paramValues
	controls [numOscSlots]oscControls
	ampCtl   adsrControls
	auxCtl   adsrControls
	gain     float64

	stealing      bool
	fade          transitiveValue
	pendingNote   int
	pendingVel    float64
	pendingSerial uint64
}

func (v *voice) start(ctx *quantumContext, note int, velocity float64, serial uint64) {
	v.note = note
	v.velocity = velocity
	v.serial = serial
	v.releasedAt = 0
	v.stealing = false
	for i := range v.oscs {
		v.oscs[i].initWithNote(note)
	}
	v.filter.init()
	v.amp.init()
	v.aux.init()
	v.amp.noteOn()
	v.aux.noteOn()
	v.prepare(ctx)
}

func (v *voice) noteOff(serial uint64) {
	v.releasedAt = serial
	v.amp.noteOff()
	v.aux.noteOff()
}

// prepare resolves the modulation matrix and parameter snapshot into
// per-quantum controls.
func (v *voice) prepare(ctx *quantumContext) {
	src := ctx.sources
	src.values[modSourceEnvAux] = v.aux.value
	src.values[modSourceVelocity] = v.velocity
	ctx.routes.apply(&v.offsets, &src)
	snap := ctx.snap
	mod := func(id int) float64 {
		return moddedParam(snap, &v.offsets, id)
	}

	for slot := 0; slot < numOscSlots; slot++ {
		c := &v.controls[slot]
		c.mode = int(snap[oscParam(slot, oscParamMode)])
		c.level = mod(oscParam(slot, oscParamLevel))
		detune := mod(oscParam(slot, oscParamDetune))
		c.freqScale = ctx.bendRatio * math.Pow(2, detune/1200)
		c.ratio = snap[oscParam(slot, oscParamRatio)]
		c.index = mod(oscParam(slot, oscParamIndex))
		c.morph = mod(oscParam(slot, oscParamMorph))
		c.grainDensity = mod(paramGrainDensity)
		c.grainDuration = mod(paramGrainDuration)
		c.grainPosition = mod(paramGrainPosition)
		c.grainPosVar = snap[paramGrainPositionVar]
		c.grainPitchVar = snap[paramGrainPitchVar]
	}

	v.filter.prepare(int(snap[paramFilterMode]), mod(paramFilterCutoff), mod(paramFilterResonance))

	v.ampCtl = adsrControls{
		attack:  mod(paramAmpAttack),
		decay:   mod(paramAmpDecay),
		sustain: mod(paramAmpSustain),
		release: mod(paramAmpRelease),
		curved:  snap[paramAmpCurve] >= 0.5,
	}
	v.auxCtl = adsrControls{
		attack:  mod(paramAuxAttack),
		decay:   mod(paramAuxDecay),
		sustain: mod(paramAuxSustain),
		release: mod(paramAuxRelease),
		curved:  true,
	}

	sense := snap[paramVelocitySense]
	v.gain = 1 + sense*(v.velocity-1)
}

func (v *voice) step(ctx *quantumContext) float64 {
	v.amp.step(&v.ampCtl)
	v.aux.step(&v.auxCtl)
	sum := 0.0
	for i := range v.oscs {
		sum += v.oscs[i].step(&v.controls[i], ctx.src)
	}
	sum = v.filter.process(sum)
	sum *= v.amp.value * v.gain
	if v.stealing {
		ended := v.fade.step()
		sum *= v.fade.value
		if ended {
			v.start(ctx, v.pendingNote, v.pendingVel, v.pendingSerial)
		}
	}
	return sum
}

func (v *voice) idle() bool {
	return !v.amp.active() && !v.stealing
}

// ----- Voice manager ----- //

type voiceManager struct {
	// pooled + active = maxPoly
	pooled []*voice
	active []*voice
	serial uint64
}

func newVoiceManager() *voiceManager {
	pooled := make([]*voice, maxPoly)
	for i := range pooled {
		pooled[i] = &voice{}
	}
	return &voiceManager{
		pooled: pooled,
		active: make([]*voice, 0, maxPoly),
	}
}

func (m *voiceManager) nextSerial() uint64 {
	m.serial++
	return m.serial
}

func (m *voiceManager) noteOn(ctx *quantumContext, note int, velocity float64) {
	serial := m.nextSerial()
	if n := len(m.pooled); n > 0 {
		v := m.pooled[n-1]
		m.pooled = m.pooled[:n-1]
		m.active = append(m.active, v)
		v.start(ctx, note, velocity, serial)
		return
	}
	v := m.steal()
	if v == nil {
		return
	}
	v.pendingNote = note
	v.pendingVel = velocity
	v.pendingSerial = serial
	if !v.stealing {
		v.stealing = true
		v.fade.init(1)
		v.fade.linear(stealFadeMs, 0)
	}
}

// steal picks the victim deterministically: the longest-released voice if any
// voice is in release, otherwise the oldest active one. The victim fades out
// over a few milliseconds before restarting on the new note.
func (m *voiceManager) steal() *voice {
	var victim *voice
	for _, v := range m.active {
		if v.releasedAt == 0 {
			continue
		}
		if victim == nil || v.releasedAt < victim.releasedAt {
			victim = v
		}
	}
	if victim != nil {
		return victim
	}
	for _, v := range m.active {
		if victim == nil || v.serial < victim.serial {
			victim = v
		}
	}
	return victim
}

func (m *voiceManager) noteOff(note int) {
	serial := m.nextSerial()
	for _, v := range m.active {
		if v.note == note && v.releasedAt == 0 && !v.stealing {
			v.noteOff(serial)
		}
	}
}

func (m *voiceManager) releaseAll() {
	serial := m.nextSerial()
	for _, v := range m.active {
		if v.releasedAt == 0 {
			v.noteOff(serial)
		}
	}
}

// reclaim returns finished voices to the pool.
func (m *voiceManager) reclaim() {
	for i := len(m.active) - 1; i >= 0; i-- {
		v := m.active[i]
		if v.idle() {
			m.active = append(m.active[:i], m.active[i+1:]...)
			m.pooled = append(m.pooled, v)
		}
	}
}

func (m *voiceManager) activeCount() int {
	return len(m.active)
}
