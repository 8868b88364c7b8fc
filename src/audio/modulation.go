package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ----- Sources ----- //

const (
	modSourceLfo0 = iota
	modSourceLfo1
	modSourceLfo2
	modSourceEnvAux
	modSourceVelocity
	modSourceAftertouch
	numModSources
)

var modSourceNames = [numModSources]string{
	"lfo0", "lfo1", "lfo2", "env_aux", "velocity", "aftertouch",
}

func modSourceFromString(s string) (int, error) {
	for i, name := range modSourceNames {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown modulation source %q", s)
}

// modSources holds the per-quantum source values for one voice. LFO and
// aftertouch slots are engine-wide; envAux and velocity differ per voice.
type modSources struct {
	values [numModSources]float64
}

// ----- Routes ----- //

const maxModRoutes = 32

type modRoute struct {
	source   int
	dest     int
	depth    float64 // -1..1, scaled by the destination's span
	unipolar bool    // remap a bipolar source to 0..1 before scaling
}

// routeSet is one immutable snapshot of the matrix.
type routeSet struct {
	routes []modRoute
}

func buildRouteSet(routes []modRoute) *routeSet {
	return &routeSet{routes: routes}
}

// apply resolves every route into destination-unit offsets. The whole array
// is cleared first; the offsets outlive matrix edits, so a destination whose
// route was just removed must not keep its last contribution.
func (rs *routeSet) apply(offsets *paramValues, src *modSources) {
	*offsets = paramValues{}
	for i := range rs.routes {
		r := &rs.routes[i]
		value := src.values[r.source]
		if r.unipolar {
			value = (value + 1) / 2
		}
		span := paramDefs[r.dest].max - paramDefs[r.dest].min
		offsets[r.dest] += r.depth * span * value
	}
}

// moddedParam returns the snapshot value plus the resolved offset, clamped to
// the destination's range.
func moddedParam(snapshot *paramValues, offsets *paramValues, id int) float64 {
	return clampParam(id, snapshot[id]+offsets[id])
}

// ----- Matrix ----- //

// modMatrix publishes route snapshots the same way paramStore publishes
// parameter snapshots. The audio thread loads the current routeSet once per
// quantum; edits build a new set and swap it in.
type modMatrix struct {
	mu      sync.Mutex
	current atomic.Value // *routeSet
}

func newModMatrix() *modMatrix {
	m := &modMatrix{}
	m.current.Store(buildRouteSet(nil))
	return m
}

func (m *modMatrix) snapshot() *routeSet {
	return m.current.Load().(*routeSet)
}

func (m *modMatrix) addRoute(source string, destKey string, depth float64, unipolar bool) error {
	src, err := modSourceFromString(source)
	if err != nil {
		return err
	}
	dest, ok := paramKeyToID[destKey]
	if !ok {
		return fmt.Errorf("unknown parameter %q", destKey)
	}
	if !paramDefs[dest].modulatable {
		return fmt.Errorf("parameter %q is not modulatable", destKey)
	}
	if depth < -1 {
		depth = -1
	} else if depth > 1 {
		depth = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.snapshot().routes
	if len(old) >= maxModRoutes {
		return fmt.Errorf("route limit reached (%d)", maxModRoutes)
	}
	next := make([]modRoute, len(old), len(old)+1)
	copy(next, old)
	next = append(next, modRoute{source: src, dest: dest, depth: depth, unipolar: unipolar})
	m.current.Store(buildRouteSet(next))
	return nil
}

func (m *modMatrix) removeRoute(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.snapshot().routes
	if index < 0 || index >= len(old) {
		return fmt.Errorf("route index %d out of range", index)
	}
	next := make([]modRoute, 0, len(old)-1)
	next = append(next, old[:index]...)
	next = append(next, old[index+1:]...)
	m.current.Store(buildRouteSet(next))
	return nil
}

func (m *modMatrix) clear() {
	m.mu.Lock()
	m.current.Store(buildRouteSet(nil))
	m.mu.Unlock()
}

// routeJSON is the preset and IPC shape of one route.
type routeJSON struct {
	Source   string  `json:"source"`
	Dest     string  `json:"dest"`
	Depth    float64 `json:"depth"`
	Unipolar bool    `json:"unipolar,omitempty"`
}

func (m *modMatrix) toJSON() []routeJSON {
	routes := m.snapshot().routes
	out := make([]routeJSON, 0, len(routes))
	for _, r := range routes {
		out = append(out, routeJSON{
			Source:   modSourceNames[r.source],
			Dest:     paramDefs[r.dest].key,
			Depth:    r.depth,
			Unipolar: r.unipolar,
		})
	}
	return out
}

// applyJSON replaces the whole matrix in one swap.
func (m *modMatrix) applyJSON(routes []routeJSON) error {
	next := make([]modRoute, 0, len(routes))
	var firstErr error
	for _, j := range routes {
		src, err := modSourceFromString(j.Source)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		dest, ok := paramKeyToID[j.Dest]
		if !ok || !paramDefs[dest].modulatable {
			if firstErr == nil {
				firstErr = fmt.Errorf("bad route destination %q", j.Dest)
			}
			continue
		}
		if len(next) >= maxModRoutes {
			break
		}
		depth := j.Depth
		if depth < -1 {
			depth = -1
		} else if depth > 1 {
			depth = 1
		}
		next = append(next, modRoute{source: src, dest: dest, depth: depth, unipolar: j.Unipolar})
	}
	m.mu.Lock()
	m.current.Store(buildRouteSet(next))
	m.mu.Unlock()
	return firstErr
}
