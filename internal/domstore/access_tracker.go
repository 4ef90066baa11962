package domstore

import "sync"

// accessTracker records attribute read counts per attribute name and
// per "origin" (a caller-supplied scope, e.g. a page load or a
// specific selector rule), so callers can decide whether a rarely-read
// attribute is worth eagerly parsing on future loads. The tracker
// never drives correctness — only a future optimization's skip
// decision — so its absence or reset never changes observable
// behavior.
type accessTracker struct {
	mu        sync.Mutex
	byName    map[uint32]uint64
	origin    string
	byOrigin  map[string]map[uint32]uint64
}

func newAccessTracker() *accessTracker {
	return &accessTracker{
		byName:   make(map[uint32]uint64),
		byOrigin: make(map[string]map[uint32]uint64),
	}
}

func (t *accessTracker) recordRead(_ NodeId, nameID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[nameID]++
	origin := t.origin
	m, ok := t.byOrigin[origin]
	if !ok {
		m = make(map[uint32]uint64)
		t.byOrigin[origin] = m
	}
	m[nameID]++
}

// SetOrigin scopes subsequent access recordings to the given origin
// label (e.g. a navigation id), so counts can be compared across page
// loads per spec §3: "access tracker records read counts per name and
// per origin to drive skip decisions across page loads".
func (s *Store) SetOrigin(origin string) {
	s.accessTracker.mu.Lock()
	defer s.accessTracker.mu.Unlock()
	s.accessTracker.origin = origin
}

// ReadCount returns the total number of times the attribute named
// nameID has been read across all origins.
func (s *Store) ReadCount(nameID uint32) uint64 {
	s.accessTracker.mu.Lock()
	defer s.accessTracker.mu.Unlock()
	return s.accessTracker.byName[nameID]
}

// ReadCountForOrigin returns the read count for nameID scoped to a
// specific origin label.
func (s *Store) ReadCountForOrigin(origin string, nameID uint32) uint64 {
	s.accessTracker.mu.Lock()
	defer s.accessTracker.mu.Unlock()
	m, ok := s.accessTracker.byOrigin[origin]
	if !ok {
		return 0
	}
	return m[nameID]
}
