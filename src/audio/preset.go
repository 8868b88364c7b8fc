package audio

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"strings"
)

// presetJSON is the on-disk shape. Parameter values keep their float64
// identity through encoding/json, so a saved preset loads back bit for bit.
type presetJSON struct {
	Name       string             `json:"name"`
	Parameters map[string]float64 `json:"parameters"`
	Routes     []routeJSON        `json:"routes"`
}

type presetManager struct {
	dir string
}

func newPresetManager(dir string) *presetManager {
	if dir == "" {
		dir = "presets"
	}
	return &presetManager{dir: dir}
}

func (pm *presetManager) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid preset name %q", name)
	}
	return pm.dir + "/" + name + ".json", nil
}

func (pm *presetManager) save(preset *presetJSON) error {
	path, err := pm.path(preset.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(pm.dir, 0755); err != nil {
		return err
	}
	bytes, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, bytes, 0644)
}

func (pm *presetManager) load(name string) (*presetJSON, error) {
	path, err := pm.path(name)
	if err != nil {
		return nil, err
	}
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	preset := &presetJSON{}
	if err := json.Unmarshal(bytes, preset); err != nil {
		return nil, err
	}
	if preset.Name == "" {
		preset.Name = name
	}
	return preset, nil
}

func (pm *presetManager) list() ([]string, error) {
	entries, err := ioutil.ReadDir(pm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// ----- Engine surface ----- //

// SetPresetDir ...
func (e *Engine) SetPresetDir(dir string) {
	e.presets = newPresetManager(dir)
}

// SavePreset writes the current parameters and routes under the given name.
func (e *Engine) SavePreset(name string) error {
	return e.presets.save(&presetJSON{
		Name:       name,
		Parameters: e.store.toMap(),
		Routes:     e.matrix.toJSON(),
	})
}

// LoadPreset applies a saved preset. Parameters land in a single snapshot
// swap and the route matrix in another, so neither is ever seen half-loaded;
// a quantum starting between the two swaps renders the new parameters against
// the outgoing routes for that one quantum.
func (e *Engine) LoadPreset(name string) error {
	preset, err := e.presets.load(name)
	if err != nil {
		return err
	}
	return e.ApplyPreset(preset)
}

// ApplyPreset ...
func (e *Engine) ApplyPreset(preset *presetJSON) error {
	if err := e.store.apply(preset.Parameters); err != nil {
		return err
	}
	return e.matrix.applyJSON(preset.Routes)
}

// CurrentPreset captures the live parameters and routes under the given name.
func (e *Engine) CurrentPreset(name string) *presetJSON {
	return &presetJSON{
		Name:       name,
		Parameters: e.store.toMap(),
		Routes:     e.matrix.toJSON(),
	}
}

// ListPresets ...
func (e *Engine) ListPresets() ([]string, error) {
	return e.presets.list()
}
