package audio

import "testing"

func TestPresetSaveLoadRoundTrip(t *testing.T) {
	e := NewEngine()
	e.SetPresetDir(t.TempDir())
	e.SetParameter("filter_cutoff", 1234.5678901234567)
	e.SetParameter("osc0_mode", float64(oscWavetable))
	e.SetParameter("osc0_morph", 0.30000000000000004)
	e.AddRoute("lfo2", "filter_cutoff", 0.5, false)
	if err := e.SavePreset("bright-pad"); err != nil {
		t.Fatal(err)
	}

	saved := e.CurrentPreset("bright-pad")

	// disturb the live state, then load the preset back
	e.SetParameter("filter_cutoff", 500)
	e.SetParameter("osc0_morph", 0)
	e.matrix.clear()
	if err := e.LoadPreset("bright-pad"); err != nil {
		t.Fatal(err)
	}

	for key, want := range saved.Parameters {
		got, err := e.GetParameter(key)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s: %v != %v after reload", key, got, want)
		}
	}
	routes := e.Routes()
	expectEqual(t, len(routes), 1)
	expectEqual(t, routes[0].Source, "lfo2")
	expectEqual(t, routes[0].Dest, "filter_cutoff")
	expectNearlyEqual(t, routes[0].Depth, 0.5)
}

func TestPresetListSorted(t *testing.T) {
	e := NewEngine()
	e.SetPresetDir(t.TempDir())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := e.SavePreset(name); err != nil {
			t.Fatal(err)
		}
	}
	names, err := e.ListPresets()
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, len(names), 3)
	expectEqual(t, names[0], "alpha")
	expectEqual(t, names[1], "mid")
	expectEqual(t, names[2], "zeta")
}

func TestPresetRejectsBadNames(t *testing.T) {
	e := NewEngine()
	e.SetPresetDir(t.TempDir())
	if err := e.SavePreset("../escape"); err == nil {
		t.Error("expected rejection of path traversal")
	}
	if err := e.SavePreset(""); err == nil {
		t.Error("expected rejection of empty name")
	}
}

func TestPresetLoadIsAtomicSwap(t *testing.T) {
	e := NewEngine()
	before := e.store.snapshot()
	err := e.ApplyPreset(&presetJSON{
		Name:       "x",
		Parameters: map[string]float64{"master_volume": 0.5, "filter_cutoff": 5000},
	})
	if err != nil {
		t.Fatal(err)
	}
	// the old snapshot is untouched; the new one carries both values
	expectNearlyEqual(t, before[paramMasterVolume], 0.75)
	after := e.store.snapshot()
	expectNearlyEqual(t, after[paramMasterVolume], 0.5)
	expectNearlyEqual(t, after[paramFilterCutoff], 5000)
}
