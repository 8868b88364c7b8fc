package audio

import (
	"context"
	"io"
	"math"
	"testing"
)

func renderSamples(e *Engine, buf []byte) []float64 {
	read, err := e.Read(buf)
	if err != nil {
		return nil
	}
	out := make([]float64, read/bytesPerSample)
	for j := range out {
		out[j] = float64(int16(uint16(buf[j*bytesPerSample])|uint16(buf[j*bytesPerSample+1])<<8)) / 32767
	}
	return out
}

func readFrames(e *Engine, buffers int) float64 {
	buf := make([]byte, bufferSizeInBytes)
	var sumSq float64
	var n int
	for i := 0; i < buffers; i++ {
		read, err := e.Read(buf)
		if err != nil {
			return 0
		}
		for j := 0; j+1 < read; j += bytesPerSample {
			v := float64(int16(uint16(buf[j])|uint16(buf[j+1])<<8)) / 32767
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

func TestEngineSilentWithoutNotes(t *testing.T) {
	e := NewEngine()
	rms := readFrames(e, 4)
	expectEqual(t, rms, 0.0)
}

func TestEngineNoteOnReachesSustainPlateau(t *testing.T) {
	e := NewEngine()
	e.NoteOn(69, 110)
	readFrames(e, 10) // past attack and decay
	rms := readFrames(e, 10)
	if rms < 0.01 {
		t.Errorf("expected audible sustain, rms=%f", rms)
	}
	later := readFrames(e, 10)
	if math.Abs(later-rms)/rms > 0.1 {
		t.Errorf("sustain should plateau: %f then %f", rms, later)
	}
}

func TestEngineNoteOffDecaysToSilence(t *testing.T) {
	e := NewEngine()
	e.SetParameter("amp_release", 10)
	e.NoteOn(60, 100)
	readFrames(e, 10)
	e.NoteOff(60)
	readFrames(e, 20) // ~425ms, far past a 10ms exponential release
	rms := readFrames(e, 4)
	if rms > 0.001 {
		t.Errorf("expected silence after release, rms=%f", rms)
	}
	expectEqual(t, e.voices.activeCount(), 0)
}

func TestEngineOutputIsAlwaysFinite(t *testing.T) {
	e := NewEngine()
	e.SetParameter("osc0_mode", float64(oscFM))
	e.SetParameter("osc1_mode", float64(oscGranular))
	e.SetParameter("osc1_level", 0.5)
	e.SetParameter("reverb_enabled", 1)
	e.SetParameter("drive_enabled", 1)
	for note := 30; note < 90; note += 7 {
		e.NoteOn(note, 127)
	}
	buf := make([]byte, bufferSizeInBytes)
	for i := 0; i < 20; i++ {
		if _, err := e.Read(buf); err != nil {
			t.Fatal(err)
		}
	}
	nan, _ := e.Faults()
	expectEqual(t, nan, uint64(0))
	for _, v := range e.outL {
		if math.IsNaN(v) || math.Abs(v) > 1 {
			t.Fatalf("output escaped bounds: %f", v)
		}
	}
}

func TestEngineSanitizeReplacesNonFinite(t *testing.T) {
	e := NewEngine()
	expectEqual(t, e.sanitize(math.NaN()), 0.0)
	expectEqual(t, e.sanitize(math.Inf(1)), 0.0)
	expectEqual(t, e.sanitize(2.5), 1.0)
	expectEqual(t, e.sanitize(-2.5), -1.0)
	nan, _ := e.Faults()
	expectEqual(t, nan, uint64(2))
}

func TestEnginePitchBendShiftsDominantFrequency(t *testing.T) {
	e := NewEngine()
	e.SetParameter("osc0_mode", float64(oscSine))
	e.SetParameter("filter_mode", float64(filterOff))
	e.NoteOn(69, 127)
	readFrames(e, 10)
	base := e.Analyze().DominantFrequency
	e.PitchBend(1) // +2 semitones
	readFrames(e, 10)
	bent := e.Analyze().DominantFrequency
	if bent <= base {
		t.Errorf("bend up should raise pitch: %f -> %f", base, bent)
	}
}

func TestEngineAnalysisTracksVoices(t *testing.T) {
	e := NewEngine()
	e.NoteOn(60, 100)
	e.NoteOn(64, 100)
	e.NoteOn(67, 100)
	readFrames(e, 4)
	snapshot := e.Analyze()
	expectEqual(t, snapshot.ActiveVoices, 3)
	if snapshot.RMS <= 0 {
		t.Error("analysis RMS should be positive while notes sound")
	}
	expectEqual(t, len(snapshot.Spectrum), analysisBlockSize/2)
}

func TestEngineModulationRouteAffectsOutput(t *testing.T) {
	e := NewEngine()
	e.SetParameter("lfo0_rate", 5)
	e.SetParameter("lfo0_depth", 1)
	if err := e.AddRoute("lfo0", "osc0_level", 1, true); err != nil {
		t.Fatal(err)
	}
	e.NoteOn(60, 127)
	readFrames(e, 10)
	// tremolo at 5 Hz: successive 100ms windows differ in level
	a := readFrames(e, 2)
	b := readFrames(e, 2)
	c := readFrames(e, 2)
	spread := math.Max(math.Max(a, b), c) - math.Min(math.Min(a, b), c)
	if spread < 0.001 {
		t.Errorf("expected level movement from tremolo route, spread=%f", spread)
	}
}

func TestEngineRouteRemovalClearsGlobalOffsets(t *testing.T) {
	e := NewEngine()
	e.Aftertouch(1)
	if err := e.AddRoute("aftertouch", "filter_cutoff", 1, false); err != nil {
		t.Fatal(err)
	}
	readFrames(e, 1)
	if e.globalOffsets[paramFilterCutoff] == 0 {
		t.Fatal("route not applied")
	}
	if err := e.RemoveRoute(0); err != nil {
		t.Fatal(err)
	}
	readFrames(e, 1)
	expectEqual(t, e.globalOffsets[paramFilterCutoff], 0.0)
}

func TestEnginePresetSwapClickBound(t *testing.T) {
	e := NewEngine()
	e.SetParameter("osc0_mode", float64(oscSine))
	e.NoteOn(69, 110)
	readFrames(e, 10)
	buf := make([]byte, bufferSizeInBytes)
	before := renderSamples(e, buf)
	err := e.ApplyPreset(&presetJSON{
		Name: "swap",
		Parameters: map[string]float64{
			"osc0_mode":     float64(oscSine),
			"osc0_level":    0.6,
			"filter_cutoff": 2000,
			"master_volume": 0.5,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	after := renderSamples(e, buf)
	prev := before[len(before)-1]
	maxDelta := 0.0
	for _, v := range after {
		if d := math.Abs(v - prev); d > maxDelta {
			maxDelta = d
		}
		prev = v
	}
	if maxDelta > 0.05 {
		t.Errorf("preset swap clicked: max sample delta %f", maxDelta)
	}
}

func TestEngineCancelDrainsBeforeEOF(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	e.ctx = ctx
	e.NoteOn(60, 127)
	readFrames(e, 4)
	cancel()
	buf := make([]byte, bufferSizeInBytes)
	total := 0
	for {
		n, err := e.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		total += n / bytesPerSample
		if total > sampleRate {
			t.Fatal("drain never reached EOF")
		}
	}
	if total < msToSamples(drainFadeMs) {
		t.Errorf("EOF arrived before the drain fade finished: %d samples", total)
	}
	expectEqual(t, e.drainGain <= 0, true)
}

func TestEngineGranularBufferValidation(t *testing.T) {
	e := NewEngine()
	if err := e.LoadGranularBuffer(make([]float64, 10)); err == nil {
		t.Error("expected rejection of a too-short buffer")
	}
	if err := e.LoadGranularBuffer(make([]float64, sampleRate)); err != nil {
		t.Errorf("valid buffer rejected: %v", err)
	}
}

func BenchmarkEngineRead(b *testing.B) {
	e := NewEngine()
	for note := 40; note < 40+16; note++ {
		e.NoteOn(note, 100)
	}
	buf := make([]byte, bufferSizeInBytes)
	e.Read(buf)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Read(buf)
	}
}
