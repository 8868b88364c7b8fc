package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// paramStore holds the current parameter snapshot. Readers (the audio thread)
// load the snapshot with a single atomic load and never block. Writers copy
// the current snapshot, mutate the copy and publish it; the writer mutex
// serializes writers only and is never touched on the audio thread.
type paramStore struct {
	mu      sync.Mutex
	current atomic.Value // *paramValues
}

func newParamStore() *paramStore {
	s := &paramStore{}
	s.current.Store(defaultParamValues())
	return s
}

// snapshot returns the current immutable value array. Safe on the audio thread.
func (s *paramStore) snapshot() *paramValues {
	return s.current.Load().(*paramValues)
}

func (s *paramStore) get(id int) float64 {
	return s.snapshot()[id]
}

// set clamps the value to the parameter's range and publishes a new snapshot.
// Returns the value actually stored.
func (s *paramStore) set(id int, value float64) float64 {
	clamped := clampParam(id, value)
	s.mu.Lock()
	next := *s.snapshot()
	next[id] = clamped
	s.current.Store(&next)
	s.mu.Unlock()
	return clamped
}

func (s *paramStore) setByKey(key string, value float64) (float64, error) {
	id, ok := paramKeyToID[key]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", key)
	}
	return s.set(id, value), nil
}

// apply replaces every parameter in a single swap. Unknown keys are reported
// but do not block the rest of the preset; values start from defaults so a
// preset missing a key leaves that key at its default, not at its old value.
func (s *paramStore) apply(values map[string]float64) error {
	next := defaultParamValues()
	var firstErr error
	for key, value := range values {
		id, ok := paramKeyToID[key]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("unknown parameter %q", key)
			}
			continue
		}
		next[id] = clampParam(id, value)
	}
	s.mu.Lock()
	s.current.Store(next)
	s.mu.Unlock()
	return firstErr
}

// toMap renders the current snapshot keyed by parameter name, for presets and
// IPC reports.
func (s *paramStore) toMap() map[string]float64 {
	v := s.snapshot()
	m := make(map[string]float64, numParams)
	for id := range paramDefs {
		m[paramDefs[id].key] = v[id]
	}
	return m
}
