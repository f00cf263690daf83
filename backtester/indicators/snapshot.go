package indicators

import (
	"math"
	"sort"
)

func newSnapshot(offset int, p Phase) *Snapshot {
	return &Snapshot{Offset: offset, Phase: p, values: make(map[string]float64, 12)}
}

// NewSnapshot builds a snapshot from known values. It is intended for callers
// replaying or fabricating indicator state
func NewSnapshot(offset int, p Phase, values map[string]float64) *Snapshot {
	s := newSnapshot(offset, p)
	for k, v := range values {
		s.set(k, v)
	}
	return s
}

func (s *Snapshot) set(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	s.values[name] = v
}

// Get returns the named value and whether it is available
func (s *Snapshot) Get(name string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Available reports whether the named value exists on this snapshot
func (s *Snapshot) Available(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns the available value names in sorted order
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of every available value
func (s *Snapshot) Values() map[string]float64 {
	if s == nil {
		return nil
	}
	resp := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		resp[k] = v
	}
	return resp
}
