package audio

import (
	"math"
	"sync/atomic"
)

const analysisBlockSize = 2048

// Band edges shared with the EQ split.
const (
	analysisBassMax = 250.0
	analysisMidMax  = 4000.0
)

// analysisBuffer carries complete output blocks from the render loop to the
// control side. The render loop fills a staging block and publishes it with a
// copy guarded by a CAS flag; if the control side happens to hold the flag,
// the block is dropped and the next one lands a block length later. Neither
// side ever blocks on the other and neither side reads memory the other is
// writing.
type analysisBuffer struct {
	staging [analysisBlockSize]float64
	fill    int
	shared  [analysisBlockSize]float64
	busy    int32
	ready   int32
}

func (b *analysisBuffer) push(v float64) {
	b.staging[b.fill] = v
	b.fill++
	if b.fill < analysisBlockSize {
		return
	}
	b.fill = 0
	if atomic.CompareAndSwapInt32(&b.busy, 0, 1) {
		b.shared = b.staging
		atomic.StoreInt32(&b.ready, 1)
		atomic.StoreInt32(&b.busy, 0)
	}
}

// latest copies the newest complete block into dst. It reports false until
// the first block has been rendered. The spin only ever waits out the render
// side's publish copy.
func (b *analysisBuffer) latest(dst *[analysisBlockSize]float64) bool {
	if atomic.LoadInt32(&b.ready) == 0 {
		return false
	}
	for !atomic.CompareAndSwapInt32(&b.busy, 0, 1) {
	}
	*dst = b.shared
	atomic.StoreInt32(&b.busy, 0)
	return true
}

// AnalysisSnapshot is the visualizer-facing view of the output signal.
type AnalysisSnapshot struct {
	RMS               float64   `json:"rms"`
	Peak              float64   `json:"peak"`
	Bass              float64   `json:"bass"`
	Mid               float64   `json:"mid"`
	High              float64   `json:"high"`
	DominantFrequency float64   `json:"dominantFrequency"`
	ActiveVoices      int       `json:"activeVoices"`
	Spectrum          []float64 `json:"spectrum"`
}

// analyzer runs on the control side only.
type analyzer struct {
	fft   *FFT
	block [analysisBlockSize]float64
	work  [analysisBlockSize]float64
}

func newAnalyzer() *analyzer {
	return &analyzer{
		fft: NewFFT(analysisBlockSize, false),
	}
}

func (a *analyzer) analyze(b *analysisBuffer, activeVoices int) AnalysisSnapshot {
	snapshot := AnalysisSnapshot{ActiveVoices: activeVoices}
	if !b.latest(&a.block) {
		return snapshot
	}
	sumSq := 0.0
	for i, v := range a.block[:] {
		a.work[i] = v
		sumSq += v * v
		if abs := math.Abs(v); abs > snapshot.Peak {
			snapshot.Peak = abs
		}
	}
	snapshot.RMS = math.Sqrt(sumSq / analysisBlockSize)

	Han(a.work[:])
	a.fft.CalcAbs(a.work[:])

	bins := analysisBlockSize / 2
	binWidth := float64(sampleRate) / analysisBlockSize
	spectrum := make([]float64, bins)
	dominantBin := 0
	var bassSum, midSum, highSum float64
	var bassN, midN, highN int
	for i := 0; i < bins; i++ {
		mag := a.work[i] / float64(bins)
		spectrum[i] = mag
		if mag > spectrum[dominantBin] {
			dominantBin = i
		}
		freq := float64(i) * binWidth
		switch {
		case freq < analysisBassMax:
			bassSum += mag
			bassN++
		case freq < analysisMidMax:
			midSum += mag
			midN++
		default:
			highSum += mag
			highN++
		}
	}
	if bassN > 0 {
		snapshot.Bass = bassSum / float64(bassN)
	}
	if midN > 0 {
		snapshot.Mid = midSum / float64(midN)
	}
	if highN > 0 {
		snapshot.High = highSum / float64(highN)
	}
	snapshot.DominantFrequency = float64(dominantBin) * binWidth
	snapshot.Spectrum = spectrum
	return snapshot
}
