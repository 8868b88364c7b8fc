package audio

import (
	"math"
	"testing"
)

func chainWithSnapshot(values map[string]float64) (*effectsChain, *paramValues) {
	snap := defaultParamValues()
	for key, value := range values {
		snap[paramKeyToID[key]] = value
	}
	c := newEffectsChain()
	var offsets paramValues
	c.prepare(snap, &offsets)
	return c, snap
}

func TestChainBypassIsBitIdentical(t *testing.T) {
	// all stages disabled; the limiter passes small signals untouched
	c, _ := chainWithSnapshot(nil)
	phase := 0.0
	for i := 0; i < 1000; i++ {
		in := 0.3 * math.Sin(phase)
		phase += 0.05
		l, r := c.process(in, in)
		if l != in || r != in {
			t.Fatalf("bypass altered sample %d: %v != %v", i, l, in)
		}
	}
}

func TestDelayProducesOutput(t *testing.T) {
	c, _ := chainWithSnapshot(map[string]float64{
		"delay_enabled": 1,
		"delay_time":    100,
		"delay_mix":     0.5,
	})
	c.process(1.0, 1.0)
	for i := 0; i < msToSamples(100)-2; i++ {
		c.process(0, 0)
	}
	var found bool
	for i := 0; i < 4; i++ {
		l, _ := c.process(0, 0)
		if math.Abs(l) > 0.01 {
			found = true
		}
	}
	if !found {
		t.Error("expected delayed output")
	}
}

func TestReverbProducesTail(t *testing.T) {
	c, _ := chainWithSnapshot(map[string]float64{
		"reverb_enabled": 1,
		"reverb_mix":     0.5,
	})
	c.process(1.0, 1.0)
	var maxOut float64
	for i := 0; i < 10000; i++ {
		l, _ := c.process(0, 0)
		if l > maxOut {
			maxOut = l
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestDriveIsBounded(t *testing.T) {
	c, _ := chainWithSnapshot(map[string]float64{
		"drive_enabled": 1,
		"drive_gain":    20,
		"drive_mix":     1,
	})
	for _, in := range []float64{-2, -0.5, 0.1, 0.5, 2} {
		l, r := c.process(in, in)
		if math.Abs(l) > 1.01 || math.Abs(r) > 1.01 {
			t.Errorf("drive output unbounded for input %f: l=%f r=%f", in, l, r)
		}
	}
}

func TestLimiterHoldsCeiling(t *testing.T) {
	c, snap := chainWithSnapshot(map[string]float64{
		"limiter_ceiling": -6,
	})
	ceiling := math.Pow(10, snap[paramLimiterCeiling]/20)
	for i := 0; i < 1000; i++ {
		l, r := c.process(1.0, 1.0)
		if math.Abs(l) > ceiling+1e-9 || math.Abs(r) > ceiling+1e-9 {
			t.Fatalf("limiter exceeded ceiling at sample %d: %f > %f", i, l, ceiling)
		}
	}
}

func TestEQUnityAtZeroGain(t *testing.T) {
	c, _ := chainWithSnapshot(map[string]float64{
		"eq_enabled": 1,
	})
	// warm up, then expect near-unity response for a mid-band tone
	phase := 0.0
	var maxErr float64
	for i := 0; i < 5000; i++ {
		in := 0.5 * math.Sin(phase)
		phase += 2 * math.Pi * 1000 / sampleRate
		l, _ := c.process(in, in)
		if i > 1000 {
			if e := math.Abs(l - in); e > maxErr {
				maxErr = e
			}
		}
	}
	if maxErr > 0.05 {
		t.Errorf("EQ at zero gain colored the signal: max error %f", maxErr)
	}
}

func TestChorusThickensSignal(t *testing.T) {
	c, _ := chainWithSnapshot(map[string]float64{
		"chorus_enabled": 1,
		"chorus_mix":     1,
		"chorus_depth":   0.5,
		"chorus_rate":    1,
	})
	// wet-only output is the delayed signal; the first samples are silence
	// from the empty buffer
	l, r := c.process(0.5, 0.5)
	expectEqual(t, l, 0.0)
	expectEqual(t, r, 0.0)
	var heard bool
	for i := 0; i < msToSamples(chorusBaseDelayMs+chorusMaxDepthMs); i++ {
		l, _ = c.process(0.5, 0.5)
		if math.Abs(l) > 0.01 {
			heard = true
		}
	}
	if !heard {
		t.Error("chorus never produced wet signal")
	}
}

func TestChainOrderDriveBeforeDelay(t *testing.T) {
	c := newEffectsChain()
	var driveIndex, delayIndex, limiterIndex int
	for i, entry := range c.entries {
		switch entry.fx.(type) {
		case *drive:
			driveIndex = i
		case *stereoDelay:
			delayIndex = i
		case *limiter:
			limiterIndex = i
		}
	}
	if driveIndex >= delayIndex {
		t.Error("drive should run before delay")
	}
	expectEqual(t, limiterIndex, len(c.entries)-1)
}

func TestEffectsResetClearsState(t *testing.T) {
	c, _ := chainWithSnapshot(map[string]float64{
		"delay_enabled": 1,
		"delay_time":    50,
		"delay_mix":     1,
	})
	c.process(1.0, 1.0)
	c.reset()
	for i := 0; i < msToSamples(200); i++ {
		l, r := c.process(0, 0)
		if l != 0 || r != 0 {
			t.Fatalf("state survived reset at sample %d", i)
		}
	}
}
