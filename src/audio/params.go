package audio

// Parameters are addressed by dense integer IDs so the audio thread can use
// plain array indexing instead of map lookups. String keys exist only for the
// control surface and for preset files.
const (
	paramMasterVolume = iota
	paramPitchBend
	paramAftertouch
	paramVelocitySense
	paramTempo

	paramFilterMode
	paramFilterCutoff
	paramFilterResonance

	paramAmpAttack
	paramAmpDecay
	paramAmpSustain
	paramAmpRelease
	paramAmpCurve

	paramAuxAttack
	paramAuxDecay
	paramAuxSustain
	paramAuxRelease

	paramLfo0Wave
	paramLfo0Rate
	paramLfo0Depth
	paramLfo0Sync
	paramLfo1Wave
	paramLfo1Rate
	paramLfo1Depth
	paramLfo1Sync
	paramLfo2Wave
	paramLfo2Rate
	paramLfo2Depth
	paramLfo2Sync

	paramOsc0Mode
	paramOsc0Level
	paramOsc0Detune
	paramOsc0Ratio
	paramOsc0Index
	paramOsc0Morph
	paramOsc1Mode
	paramOsc1Level
	paramOsc1Detune
	paramOsc1Ratio
	paramOsc1Index
	paramOsc1Morph
	paramOsc2Mode
	paramOsc2Level
	paramOsc2Detune
	paramOsc2Ratio
	paramOsc2Index
	paramOsc2Morph
	paramOsc3Mode
	paramOsc3Level
	paramOsc3Detune
	paramOsc3Ratio
	paramOsc3Index
	paramOsc3Morph

	paramGrainDensity
	paramGrainDuration
	paramGrainPosition
	paramGrainPositionVar
	paramGrainPitchVar

	paramEQEnabled
	paramEQLowGain
	paramEQMidGain
	paramEQHighGain
	paramDriveEnabled
	paramDriveGain
	paramDriveMix
	paramChorusEnabled
	paramChorusRate
	paramChorusDepth
	paramChorusMix
	paramDelayEnabled
	paramDelayTime
	paramDelayFeedback
	paramDelayMix
	paramReverbEnabled
	paramReverbSize
	paramReverbDamp
	paramReverbMix
	paramLimiterCeiling
	paramLimiterRelease

	numParams
)

const (
	numOscSlots    = 4
	oscSlotStride  = paramOsc1Mode - paramOsc0Mode
	numLfos        = 3
	lfoParamStride = paramLfo1Wave - paramLfo0Wave
)

// Filter modes (paramFilterMode).
const (
	filterLowPass = iota
	filterHighPass
	filterBandPass
	filterNotch
	filterOff
)

// Oscillator modes (paramOscNMode).
const (
	oscOff = iota
	oscSine
	oscTriangle
	oscSaw
	oscSquare
	oscFM
	oscWavetable
	oscGranular
)

// LFO sync divisions (paramLfoNSync).
const (
	lfoSyncFree = iota
	lfoSyncWhole
	lfoSyncHalf
	lfoSyncQuarter
	lfoSyncEighth
	lfoSyncSixteenth
)

// Offsets inside one oscillator slot.
const (
	oscParamMode = iota
	oscParamLevel
	oscParamDetune
	oscParamRatio
	oscParamIndex
	oscParamMorph
)

func oscParam(slot int, offset int) int {
	return paramOsc0Mode + slot*oscSlotStride + offset
}

func lfoParam(index int, offset int) int {
	return paramLfo0Wave + index*lfoParamStride + offset
}

type paramDef struct {
	key         string
	min         float64
	max         float64
	def         float64
	modulatable bool
}

var paramDefs [numParams]paramDef
var paramKeyToID map[string]int

func init() {
	d := func(id int, key string, min, max, def float64, mod bool) {
		paramDefs[id] = paramDef{key: key, min: min, max: max, def: def, modulatable: mod}
	}
	d(paramMasterVolume, "master_volume", 0, 1, 0.75, true)
	d(paramPitchBend, "pitch_bend", -1, 1, 0, false)
	d(paramAftertouch, "aftertouch", 0, 1, 0, false)
	d(paramVelocitySense, "velocity_sense", 0, 1, 1, false)
	d(paramTempo, "tempo", 20, 300, 120, false)

	d(paramFilterMode, "filter_mode", 0, 4, filterLowPass, false)
	d(paramFilterCutoff, "filter_cutoff", 20, 20000, 1000, true)
	d(paramFilterResonance, "filter_resonance", 0, 1, 0.2, true)

	d(paramAmpAttack, "amp_attack", 0.5, 10000, 10, true)
	d(paramAmpDecay, "amp_decay", 0.5, 10000, 100, true)
	d(paramAmpSustain, "amp_sustain", 0, 1, 0.7, true)
	d(paramAmpRelease, "amp_release", 0.5, 10000, 200, true)
	d(paramAmpCurve, "amp_curve", 0, 1, 1, false)

	d(paramAuxAttack, "aux_attack", 0.5, 10000, 5, true)
	d(paramAuxDecay, "aux_decay", 0.5, 10000, 150, true)
	d(paramAuxSustain, "aux_sustain", 0, 1, 0, true)
	d(paramAuxRelease, "aux_release", 0.5, 10000, 300, true)

	for i := 0; i < numLfos; i++ {
		n := string(rune('0' + i))
		d(lfoParam(i, 0), "lfo"+n+"_wave", 0, 4, lfoWaveSine, false)
		d(lfoParam(i, 1), "lfo"+n+"_rate", 0.01, 20, 2, true)
		d(lfoParam(i, 2), "lfo"+n+"_depth", 0, 1, 0, true)
		d(lfoParam(i, 3), "lfo"+n+"_sync", 0, 5, lfoSyncFree, false)
	}

	for i := 0; i < numOscSlots; i++ {
		n := string(rune('0' + i))
		mode := float64(oscOff)
		level := 0.0
		if i == 0 {
			mode = oscSaw
			level = 0.8
		}
		d(oscParam(i, oscParamMode), "osc"+n+"_mode", 0, 7, mode, false)
		d(oscParam(i, oscParamLevel), "osc"+n+"_level", 0, 1, level, true)
		d(oscParam(i, oscParamDetune), "osc"+n+"_detune", -100, 100, 0, true)
		d(oscParam(i, oscParamRatio), "osc"+n+"_ratio", 0.5, 8, 2, false)
		d(oscParam(i, oscParamIndex), "osc"+n+"_index", 0, 10, 1.5, true)
		d(oscParam(i, oscParamMorph), "osc"+n+"_morph", 0, 1, 0, true)
	}

	d(paramGrainDensity, "grain_density", 1, 100, 20, true)
	d(paramGrainDuration, "grain_duration", 5, 500, 80, true)
	d(paramGrainPosition, "grain_position", 0, 1, 0.3, true)
	d(paramGrainPositionVar, "grain_position_var", 0, 1, 0.1, false)
	d(paramGrainPitchVar, "grain_pitch_var", 0, 12, 0, false)

	d(paramEQEnabled, "eq_enabled", 0, 1, 0, false)
	d(paramEQLowGain, "eq_low_gain", -24, 24, 0, true)
	d(paramEQMidGain, "eq_mid_gain", -24, 24, 0, true)
	d(paramEQHighGain, "eq_high_gain", -24, 24, 0, true)
	d(paramDriveEnabled, "drive_enabled", 0, 1, 0, false)
	d(paramDriveGain, "drive_gain", 1, 20, 4, true)
	d(paramDriveMix, "drive_mix", 0, 1, 0.5, true)
	d(paramChorusEnabled, "chorus_enabled", 0, 1, 0, false)
	d(paramChorusRate, "chorus_rate", 0.05, 5, 0.8, true)
	d(paramChorusDepth, "chorus_depth", 0, 1, 0.3, true)
	d(paramChorusMix, "chorus_mix", 0, 1, 0.4, true)
	d(paramDelayEnabled, "delay_enabled", 0, 1, 0, false)
	d(paramDelayTime, "delay_time", 10, 2000, 400, true)
	d(paramDelayFeedback, "delay_feedback", 0, 0.95, 0.35, true)
	d(paramDelayMix, "delay_mix", 0, 1, 0.25, true)
	d(paramReverbEnabled, "reverb_enabled", 0, 1, 0, false)
	d(paramReverbSize, "reverb_size", 0, 1, 0.5, false)
	d(paramReverbDamp, "reverb_damp", 0, 1, 0.5, true)
	d(paramReverbMix, "reverb_mix", 0, 1, 0.2, true)
	d(paramLimiterCeiling, "limiter_ceiling", -12, 0, -0.3, false)
	d(paramLimiterRelease, "limiter_release", 1, 500, 50, false)

	paramKeyToID = make(map[string]int, numParams)
	for id := range paramDefs {
		paramKeyToID[paramDefs[id].key] = id
	}
}

func clampParam(id int, value float64) float64 {
	def := &paramDefs[id]
	if value < def.min {
		return def.min
	}
	if value > def.max {
		return def.max
	}
	return value
}

// paramValues is one immutable snapshot of every parameter. The audio thread
// only ever sees whole snapshots, so a preset load can never be observed
// half-applied.
type paramValues [numParams]float64

func defaultParamValues() *paramValues {
	var v paramValues
	for id := range paramDefs {
		v[id] = paramDefs[id].def
	}
	return &v
}
