package ordr

// Plan is the immutable, acyclic, dependency-closed graph produced by
// Builder.Build. It pairs the reduced set of runnable descriptors with the
// seeded nodes that stand in for them, plus the precomputed dependents map
// and in-degrees the scheduler drives from. A Plan is safe to share
// read-only across goroutines; nothing on it mutates after Build returns.
type Plan struct {
	targets     []Identity
	descriptors map[Identity]Descriptor
	seed        map[Identity]Blob
	dependents  map[Identity][]Identity
	inDegree    map[Identity]int
	order       []Identity
}

// Targets returns the output identities this Plan was built to reach.
func (p *Plan) Targets() []Identity {
	out := make([]Identity, len(p.targets))
	copy(out, p.targets)
	return out
}

// Descriptor returns the runnable Descriptor registered for id, if id is a
// node that still needs to run. Seeded nodes are not returned here; use
// IsSeeded and SeedValue for those.
func (p *Plan) Descriptor(id Identity) (Descriptor, bool) {
	d, ok := p.descriptors[id]
	return d, ok
}

// Nodes returns every node identity in the plan, runnable and seeded alike,
// in registration order; nodes that were never registered (pure seed data)
// come last, ordered by identity. This is the order ready-queue ties are
// broken by.
func (p *Plan) Nodes() []Identity {
	out := make([]Identity, len(p.order))
	copy(out, p.order)
	return out
}

// Dependents returns the identities of nodes that declared id as a
// dependency.
func (p *Plan) Dependents(id Identity) []Identity {
	deps := p.dependents[id]
	out := make([]Identity, len(deps))
	copy(out, deps)
	return out
}

// InDegree returns the number of declared dependencies of a runnable node,
// seeded dependencies included; the scheduler subtracts the seeded ones when
// a run starts. It is zero for seeded nodes and for nodes with no
// dependencies.
func (p *Plan) InDegree(id Identity) int {
	return p.inDegree[id]
}

// IsSeeded reports whether id was supplied by Builder.WithData and therefore
// starts the run already Skipped rather than Pending.
func (p *Plan) IsSeeded(id Identity) bool {
	_, ok := p.seed[id]
	return ok
}

// SeedValue returns the pre-existing blob for a seeded node.
func (p *Plan) SeedValue(id Identity) (Blob, bool) {
	b, ok := p.seed[id]
	return b, ok
}

// Edges returns every dependency edge in the reduced graph as (from, to)
// pairs, meaning from is a dependency of to. It exists for external
// collaborators such as mermaid rendering; the core never calls it.
func (p *Plan) Edges() [][2]Identity {
	var edges [][2]Identity
	for _, id := range p.order {
		d, ok := p.descriptors[id]
		if !ok {
			continue
		}
		for _, dep := range d.Dependencies {
			edges = append(edges, [2]Identity{dep, id})
		}
	}
	return edges
}
