package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

type wavetable struct {
	values []float64
}

func newWavetable(cap int) *wavetable {
	return &wavetable{
		values: make([]float64, 0, cap),
	}
}
func (wt *wavetable) generate(samples int, phaseToValue func(phase float64) float64) error {
	if samples > cap(wt.values) {
		return fmt.Errorf("capacity exceeded")
	}
	wt.values = wt.values[0:samples]
	for i := 0; i < samples; i++ {
		phase := 2.0 * math.Pi / float64(samples) * float64(i)
		wt.values[i] = phaseToValue(phase)
	}
	return nil
}
func (wt *wavetable) getAtPhase(phase float64) float64 {
	phase = positiveMod(phase, 2.0*math.Pi)
	length := len(wt.values)
	phasePerSample := 2.0 * math.Pi / float64(length)
	index := int(phase / phasePerSample)
	if index >= length {
		index = length - 1
	}
	nextIndex := index + 1
	if nextIndex >= length {
		nextIndex = 0
	}
	t := math.Mod(phase, phasePerSample) / phasePerSample
	return wt.values[index]*(1-t) + wt.values[nextIndex]*t
}
func (wt *wavetable) makeBandLimitedTableForGivenNumberOfPartials(samples int, partials int, calcFourierPartialAtPhase func(n int, phase float64) float64) {
	wt.generate(samples, func(phase float64) float64 {
		value := 0.0
		for i := 1; i <= partials; i++ {
			value += calcFourierPartialAtPhase(i, phase)
		}
		return value
	})
}
// Partials are capped so table generation stays cheap for the lowest notes;
// 512 partials already reach past 4 kHz at the bottom of the MIDI range.
const maxTablePartials = 512

func (wt *wavetable) makeBandLimitedTableWithMaxNumbersOfPartialsAtNote(samples int, note int, calcFourierPartialAtPhase func(n int, phase float64) float64) {
	freq := noteToFreq(note)
	partials := int(sampleRate / 2 / freq)
	if partials > maxTablePartials {
		partials = maxTablePartials
	}
	wt.makeBandLimitedTableForGivenNumberOfPartials(samples, partials, calcFourierPartialAtPhase)
}

// WavetableSet holds one table per MIDI note so every note reads a table
// whose highest partial stays below Nyquist.
type WavetableSet struct {
	tables []*wavetable
}

// NewWavetableSet ...
func NewWavetableSet(tableCap int, sampleCap int) *WavetableSet {
	tables := make([]*wavetable, tableCap)
	for i := 0; i < tableCap; i++ {
		tables[i] = newWavetable(sampleCap)
	}
	return &WavetableSet{
		tables: tables,
	}
}

// MakeBandLimitedTablesForAllNotes ...
func (wts *WavetableSet) MakeBandLimitedTablesForAllNotes(samples int, calcFourierPartialAtPhase func(n int, phase float64) float64) error {
	if cap(wts.tables) < 128 {
		return fmt.Errorf("capacity of tables exceeded")
	}
	wts.tables = wts.tables[0:128]
	for i := 0; i < 128; i++ {
		wts.tables[i].makeBandLimitedTableWithMaxNumbersOfPartialsAtNote(samples, i, calcFourierPartialAtPhase)
	}
	return nil
}

// IO
//   all = { number_of_tables int32, tables []table }
//   table = { number_of_samples int32, samples []float64 }

// Save ...
func (wts *WavetableSet) Save(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	defer file.Close()
	numTables := int32(len(wts.tables))
	err = binary.Write(file, binary.BigEndian, numTables)
	if err != nil {
		return err
	}
	for _, wt := range wts.tables {
		numSamples := int32(len(wt.values))
		err = binary.Write(file, binary.BigEndian, numSamples)
		if err != nil {
			return err
		}
		for _, value := range wt.values {
			err := binary.Write(file, binary.BigEndian, value)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Load ...
func (wts *WavetableSet) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	var numTables int32
	err = binary.Read(file, binary.BigEndian, &numTables)
	if err != nil {
		return err
	}
	if int(numTables) > cap(wts.tables) {
		return fmt.Errorf("number of tables exceeded")
	}
	wts.tables = wts.tables[0:numTables]
	for _, wt := range wts.tables {
		var numSamples int32
		err = binary.Read(file, binary.BigEndian, &numSamples)
		if err != nil {
			return err
		}
		if int(numSamples) > cap(wt.values) {
			return fmt.Errorf("number of samples exceeded")
		}
		wt.values = wt.values[0:numSamples]
		for i := range wt.values {
			err = binary.Read(file, binary.BigEndian, &wt.values[i])
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ----- Band-limited table sets ----- //

const bandLimitedTableSamples = 2048

var blsawWT = makeBandLimitedSet(func(n int, phase float64) float64 {
	return -2.0 / math.Pi * math.Sin(float64(n)*phase) / float64(n)
})
var blsquareWT = makeBandLimitedSet(func(n int, phase float64) float64 {
	if n%2 == 0 {
		return 0
	}
	return 4.0 / math.Pi * math.Sin(float64(n)*phase) / float64(n)
})
var bltriangleWT = makeBandLimitedSet(func(n int, phase float64) float64 {
	if n%2 == 0 {
		return 0
	}
	sign := 1.0
	if (n/2)%2 == 1 {
		sign = -1.0
	}
	return 8.0 / (math.Pi * math.Pi) * sign * math.Sin(float64(n)*phase) / float64(n*n)
})

func makeBandLimitedSet(calcFourierPartialAtPhase func(n int, phase float64) float64) *WavetableSet {
	wts := NewWavetableSet(128, bandLimitedTableSamples)
	wts.MakeBandLimitedTablesForAllNotes(bandLimitedTableSamples, calcFourierPartialAtPhase)
	return wts
}

// ----- Morph table ----- //

// morphTable is a stack of frames scanned by a 0..1 position. Each frame is a
// full set of per-note band-limited tables; the read interpolates between the
// two frames around the position.
type morphTable struct {
	frames []*WavetableSet
}

var defaultMorphTable = &morphTable{
	frames: []*WavetableSet{
		makeBandLimitedSet(func(n int, phase float64) float64 {
			if n != 1 {
				return 0
			}
			return math.Sin(phase)
		}),
		bltriangleWT,
		blsawWT,
		blsquareWT,
	},
}

func (mt *morphTable) getAtPhase(position float64, note int, phase float64) float64 {
	if position < 0 {
		position = 0
	} else if position > 1 {
		position = 1
	}
	scaled := position * float64(len(mt.frames)-1)
	index := int(scaled)
	if index >= len(mt.frames)-1 {
		return mt.frames[len(mt.frames)-1].tables[note].getAtPhase(phase)
	}
	t := scaled - float64(index)
	a := mt.frames[index].tables[note].getAtPhase(phase)
	b := mt.frames[index+1].tables[note].getAtPhase(phase)
	return a*(1-t) + b*t
}
