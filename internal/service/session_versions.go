package service

import "sync"

// sessionVersions counts writes per session while loads of that session are
// running, so a load can tell whether the snapshot it fetched is outdated.
// Entries exist only while at least one load is in flight.
type sessionVersions struct {
	mu      sync.Mutex
	entries map[string]*sessionVersion
}

type sessionVersion struct {
	version uint64
	loads   int
}

func newSessionVersions() *sessionVersions {
	return &sessionVersions{entries: make(map[string]*sessionVersion)}
}

// begin registers a load and returns the version it starts from.
func (v *sessionVersions) begin(sessionID string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[sessionID]
	if !ok {
		e = &sessionVersion{}
		v.entries[sessionID] = e
	}
	e.loads++
	return e.version
}

// current reports whether no write happened since begin returned version.
func (v *sessionVersions) current(sessionID string, version uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[sessionID]
	return ok && e.version == version
}

// end unregisters a load and reports whether its version was still current.
func (v *sessionVersions) end(sessionID string, version uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[sessionID]
	if !ok {
		return false
	}
	current := e.version == version
	e.loads--
	if e.loads <= 0 {
		delete(v.entries, sessionID)
	}
	return current
}

// bump records a write to the session.
func (v *sessionVersions) bump(sessionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[sessionID]; ok {
		e.version++
	}
}

// tracked reports how many sessions have loads in flight.
func (v *sessionVersions) tracked() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}
