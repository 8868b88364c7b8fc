package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	quantumFrames   = 128
	maxPoly         = 32
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate
const baseFreq = 440.0
const voiceGain = 0.15

// Master volume follows its target with a 5 ms one-pole to avoid zipper
// noise; shutdown fades over 50 ms before Read reports EOF.
const masterSmoothMs = 5.0
const drainFadeMs = 50.0

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}

// Engine is a polyphonic synthesizer that renders wherever it is read from.
// All sound-shaping state lives behind snapshots so Read never blocks on the
// control surface. Create one with NewEngine; there is no shared instance.
type Engine struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string

	store    *paramStore
	matrix   *modMatrix
	voices   *voiceManager
	effects  *effectsChain
	lfos     [numLfos]lfoUnit
	granular atomic.Value // *granularSource
	presets  *presetManager
	analyzer *analyzer
	analysis analysisBuffer

	events  chan noteEvent
	buckets [][]noteEvent

	qctx          quantumContext
	globalOffsets paramValues
	outL          []float64
	outR          []float64
	masterVol     float64
	pos           int64
	lastRead      uint64 // float64 bits, written by Read, read by event producers

	closing       int32
	drained       int32
	drainGain     float64
	activeVoices  int32
	nanFaults     uint64
	droppedEvents uint64
}

var _ io.Reader = (*Engine)(nil)

// NewEngine builds a stopped engine. The output device is not opened until
// Start, so an engine can render into tests or files without audio hardware.
func NewEngine() *Engine {
	e := &Engine{
		CommandCh: make(chan []string, 256),
		store:     newParamStore(),
		matrix:    newModMatrix(),
		voices:    newVoiceManager(),
		effects:   newEffectsChain(),
		presets:   newPresetManager(""),
		analyzer:  newAnalyzer(),
		events:    make(chan noteEvent, 256),
		buckets:   make([][]noteEvent, samplesPerCycle),
		outL:      make([]float64, samplesPerCycle),
		outR:      make([]float64, samplesPerCycle),
		ctx:       context.Background(),
		drainGain: 1,
	}
	for i := range e.buckets {
		e.buckets[i] = make([]noteEvent, 0, 8)
	}
	for i := range e.lfos {
		e.lfos[i].init()
	}
	e.granular.Store(newDefaultGranularSource())
	e.masterVol = e.store.get(paramMasterVolume)
	e.storeLastRead(now())
	go e.processCommands()
	return e
}

func (e *Engine) storeLastRead(t float64) {
	atomic.StoreUint64(&e.lastRead, math.Float64bits(t))
}
func (e *Engine) loadLastRead() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.lastRead))
}

// Start opens the output device and pumps the engine into it. It blocks
// until ctx is canceled or the device fails.
func (e *Engine) Start(ctx context.Context) error {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return err
	}
	e.otoContext = otoContext
	p := otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	e.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, e, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// Close releases held notes and closes the device once the drain fade ends.
func (e *Engine) Close() error {
	log.Println("Closing Engine...")
	atomic.StoreInt32(&e.closing, 1)
	close(e.CommandCh)
	if e.otoContext == nil {
		return nil
	}
	// let the fade reach the device before tearing it down
	for i := 0; atomic.LoadInt32(&e.drained) == 0 && i < 100; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	return e.otoContext.Close()
}

func (e *Engine) Read(buf []byte) (int, error) {
	select {
	case <-e.ctx.Done():
		// keep rendering through the drain fade; EOF comes once it lands
		atomic.StoreInt32(&e.closing, 1)
	default:
	}
	if atomic.LoadInt32(&e.closing) == 1 && e.drainGain <= 0 {
		atomic.StoreInt32(&e.drained, 1)
		log.Println("Read() drained.")
		return 0, io.EOF
	}
	timestamp := now()
	bufSamples := len(buf) / bytesPerSample
	if bufSamples > samplesPerCycle {
		bufSamples = samplesPerCycle
	}
	e.drainEvents(bufSamples)
	for q := 0; q < bufSamples; q += quantumFrames {
		frames := quantumFrames
		if q+frames > bufSamples {
			frames = bufSamples - q
		}
		e.renderQuantum(q, frames)
	}
	e.writeBuffer(buf, bufSamples)
	e.pos += int64(bufSamples)
	e.storeLastRead(timestamp)
	atomic.StoreInt32(&e.activeVoices, int32(e.voices.activeCount()))
	return bufSamples * bytesPerSample, nil
}

// drainEvents moves pending note events into per-sample buckets. Events
// stamped beyond the buffer land on the last sample rather than being lost.
func (e *Engine) drainEvents(bufSamples int) {
	for i := 0; i < bufSamples; i++ {
		e.buckets[i] = e.buckets[i][:0]
	}
	for {
		select {
		case ev := <-e.events:
			index := ev.index
			if index < 0 {
				index = 0
			} else if index >= bufSamples {
				index = bufSamples - 1
			}
			if len(e.buckets[index]) == cap(e.buckets[index]) {
				atomic.AddUint64(&e.droppedEvents, 1)
				continue
			}
			e.buckets[index] = append(e.buckets[index], ev)
		default:
			return
		}
	}
}

func (e *Engine) renderQuantum(offset int, frames int) {
	snap := e.store.snapshot()
	ctx := &e.qctx
	ctx.snap = snap
	ctx.routes = e.matrix.snapshot()
	ctx.src = e.granular.Load().(*granularSource)
	ctx.bendRatio = math.Pow(2, snap[paramPitchBend]*2/12)

	tempo := snap[paramTempo]
	for i := range e.lfos {
		wave := int(snap[lfoParam(i, 0)])
		rate := lfoRate(int(snap[lfoParam(i, 3)]), snap[lfoParam(i, 1)], tempo)
		depth := snap[lfoParam(i, 2)]
		ctx.sources.values[modSourceLfo0+i] = e.lfos[i].advance(wave, rate, frames) * depth
	}
	ctx.sources.values[modSourceAftertouch] = snap[paramAftertouch]
	ctx.sources.values[modSourceEnvAux] = 0
	ctx.sources.values[modSourceVelocity] = 0

	ctx.routes.apply(&e.globalOffsets, &ctx.sources)
	e.effects.prepare(snap, &e.globalOffsets)
	masterTarget := moddedParam(snap, &e.globalOffsets, paramMasterVolume)
	masterCoef := 1 - math.Exp(-1/(masterSmoothMs/1000*sampleRate))

	for _, v := range e.voices.active {
		v.prepare(ctx)
	}

	closing := atomic.LoadInt32(&e.closing) == 1
	drainStep := 1 / (drainFadeMs / 1000 * sampleRate)

	for s := 0; s < frames; s++ {
		i := offset + s
		for _, ev := range e.buckets[i] {
			switch ev.kind {
			case eventNoteOn:
				e.voices.noteOn(ctx, ev.note, ev.velocity)
			case eventNoteOff:
				e.voices.noteOff(ev.note)
			case eventAllOff:
				e.voices.releaseAll()
			}
		}
		sum := 0.0
		for _, v := range e.voices.active {
			sum += v.step(ctx)
		}
		mono := sum * voiceGain
		l, r := e.effects.process(mono, mono)
		e.masterVol += (masterTarget - e.masterVol) * masterCoef
		l *= e.masterVol
		r *= e.masterVol
		if closing {
			e.drainGain -= drainStep
			if e.drainGain < 0 {
				e.drainGain = 0
			}
			l *= e.drainGain
			r *= e.drainGain
		}
		l = e.sanitize(l)
		r = e.sanitize(r)
		e.outL[i] = l
		e.outR[i] = r
		e.analysis.push((l + r) / 2)
	}
	e.voices.reclaim()
}

// sanitize keeps non-finite values out of the output. Faults are counted for
// the control side to report; the render path stays silent about them.
func (e *Engine) sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		atomic.AddUint64(&e.nanFaults, 1)
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func (e *Engine) writeBuffer(buf []byte, samples int) {
	const max = 32767
	for i := 0; i < samples; i++ {
		l := int16(e.outL[i] * max)
		r := int16(e.outR[i] * max)
		buf[bytesPerSample*i] = byte(l)
		buf[bytesPerSample*i+1] = byte(l >> 8)
		buf[bytesPerSample*i+2] = byte(r)
		buf[bytesPerSample*i+3] = byte(r >> 8)
	}
}

// ----- Control surface ----- //

// SetParameter clamps and stores one value, returning what was stored.
func (e *Engine) SetParameter(key string, value float64) (float64, error) {
	return e.store.setByKey(key, value)
}

// GetParameter ...
func (e *Engine) GetParameter(key string) (float64, error) {
	id, ok := paramKeyToID[key]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", key)
	}
	return e.store.get(id), nil
}

// AddRoute ...
func (e *Engine) AddRoute(source string, dest string, depth float64, unipolar bool) error {
	return e.matrix.addRoute(source, dest, depth, unipolar)
}

// RemoveRoute ...
func (e *Engine) RemoveRoute(index int) error {
	return e.matrix.removeRoute(index)
}

// Routes ...
func (e *Engine) Routes() []routeJSON {
	return e.matrix.toJSON()
}

// LoadGranularBuffer copies samples into a new grain source and swaps it in.
func (e *Engine) LoadGranularBuffer(samples []float64) error {
	if len(samples) < sampleRate/10 {
		return fmt.Errorf("granular buffer too short: %d samples", len(samples))
	}
	values := make([]float64, len(samples))
	copy(values, samples)
	e.granular.Store(newGranularSource(values))
	return nil
}

// Analyze computes the current analysis snapshot on the caller's goroutine.
func (e *Engine) Analyze() AnalysisSnapshot {
	return e.analyzer.analyze(&e.analysis, int(atomic.LoadInt32(&e.activeVoices)))
}

// Faults reports the number of non-finite samples replaced with silence and
// the number of note events dropped on overflow.
func (e *Engine) Faults() (nonFinite uint64, dropped uint64) {
	return atomic.LoadUint64(&e.nanFaults), atomic.LoadUint64(&e.droppedEvents)
}
