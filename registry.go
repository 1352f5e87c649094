package ordr

import "sync"

// Registry maps node Identities to their registered Descriptor. It is safe
// for concurrent use and is expected to live for the lifetime of the
// process: producers are registered once, typically from package init or a
// startup wiring step, and looked up repeatedly by one or more Builders.
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[Identity]Descriptor
	conflicted map[Identity]bool
	seq        map[Identity]int
	next       int
}

// NewRegistry returns an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[Identity]Descriptor),
		conflicted: make(map[Identity]bool),
		seq:        make(map[Identity]int),
	}
}

// Register adds d to the registry. Registering the same Identity with an
// equivalent Descriptor (same dependency list) is a no-op, matching the
// contract's "idempotent per identity". Registering a second, differing
// Descriptor under an Identity already taken does not panic or return an
// error here: per the contract, that is a programming error detected at
// job-build time, where Builder.Build reports it as a Collision. The first
// registration is kept; Build is what refuses to proceed.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byIdentity[d.Identity]
	if !ok {
		r.byIdentity[d.Identity] = d
		r.seq[d.Identity] = r.next
		r.next++
		return
	}
	if !existing.sameShape(d) {
		r.conflicted[d.Identity] = true
	}
}

// Lookup returns the Descriptor registered for id, if any.
func (r *Registry) Lookup(id Identity) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byIdentity[id]
	return d, ok
}

// conflictsAt reports whether id has two or more differing Descriptors
// registered against it.
func (r *Registry) conflictsAt(id Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conflicted[id]
}

// seqOf returns the registration order of id, used to break ready-queue ties
// deterministically. Nodes with no registration (pure seed data) report ok
// false.
func (r *Registry) seqOf(id Identity) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.seq[id]
	return s, ok
}
