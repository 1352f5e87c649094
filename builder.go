package ordr

import (
	"context"
	"sort"

	"github.com/casperin/ordr/internal/ctxlog"
)

// Builder accumulates build targets and seed data against a Registry and
// emits an immutable Plan. A Builder is used once: construct it, call Add
// and WithData any number of times, then Build.
type Builder struct {
	registry *Registry
	targets  []Identity
	seed     map[Identity]Blob
	ctx      context.Context
}

// NewBuilder returns a Builder that resolves descriptors from registry.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{
		registry: registry,
		seed:     make(map[Identity]Blob),
		ctx:      context.Background(),
	}
}

// WithContext attaches ctx to the Builder so Build fetches its logger from
// it, instead of the background context's default. It does not affect
// anything Build resolves; it only changes where it logs.
func (b *Builder) WithContext(ctx context.Context) *Builder {
	b.ctx = ctx
	return b
}

// Add marks id as a build target: Build will ensure id, and everything it
// transitively depends on, ends up runnable or seeded in the emitted Plan.
func (b *Builder) Add(id Identity) *Builder {
	b.targets = append(b.targets, id)
	return b
}

// WithData seeds the builder with a prior store snapshot. Every identity it
// names starts a run already Skipped; Build prunes any of its ancestors not
// also needed by some other, unseeded node. An identity in snapshot that
// the plan never reaches is silently ignored, not an error.
func (b *Builder) WithData(snapshot Snapshot) *Builder {
	for id, v := range snapshot {
		b.seed[id] = v
	}
	return b
}

// color tracks DFS state for cycle detection: unvisited nodes are absent,
// grey nodes are on the current path, black nodes are fully resolved.
type color int

const (
	grey color = iota + 1
	black
)

// Build resolves the transitive closure of descriptors reachable from the
// added targets, applies seed reduction, and emits an immutable Plan, or
// fails with a BuildError.
func (b *Builder) Build() (*Plan, error) {
	logger := ctxlog.FromContext(b.ctx)
	logger.Debug("Building plan.", "targets", len(b.targets), "seeded", len(b.seed))

	descriptors := make(map[Identity]Descriptor)
	seeded := make(map[Identity]Blob)
	colors := make(map[Identity]color)
	parent := make(map[Identity]Identity)
	var order []Identity

	var visit func(id Identity, from Identity, hasFrom bool) error
	visit = func(id Identity, from Identity, hasFrom bool) error {
		if v, ok := b.seed[id]; ok {
			if _, already := seeded[id]; !already {
				seeded[id] = v
				order = append(order, id)
			}
			return nil
		}

		switch colors[id] {
		case black:
			return nil
		case grey:
			path := cyclePath(parent, from, id)
			logger.Error("Dependency cycle detected.", "path", path)
			return newCycleError(path)
		}

		if b.registry.conflictsAt(id) {
			logger.Error("Descriptor collision.", "nodeID", id)
			return newBuildError(Collision, id)
		}
		d, ok := b.registry.Lookup(id)
		if !ok {
			logger.Error("Unknown node referenced.", "nodeID", id)
			return newBuildError(UnknownNode, id)
		}

		colors[id] = grey
		if hasFrom {
			parent[id] = from
		}
		for _, dep := range d.Dependencies {
			if err := visit(dep, id, true); err != nil {
				return err
			}
		}
		colors[id] = black
		descriptors[id] = d
		order = append(order, id)
		return nil
	}

	if len(b.targets) == 0 {
		logger.Debug("Plan built with no targets.")
		return &Plan{
			targets:     nil,
			descriptors: descriptors,
			seed:        seeded,
			dependents:  map[Identity][]Identity{},
			inDegree:    map[Identity]int{},
			order:       order,
		}, nil
	}

	for _, t := range b.targets {
		if _, isSeed := b.seed[t]; isSeed {
			if err := visit(t, "", false); err != nil {
				return nil, err
			}
			continue
		}
		if _, ok := b.registry.Lookup(t); !ok {
			logger.Error("Invalid build target.", "nodeID", t)
			return nil, newBuildError(InvalidTarget, t)
		}
		if err := visit(t, "", false); err != nil {
			return nil, err
		}
	}

	dependents := make(map[Identity][]Identity)
	inDegree := make(map[Identity]int)
	for id, d := range descriptors {
		inDegree[id] = len(d.Dependencies)
		for _, dep := range d.Dependencies {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		si, iok := b.registry.seqOf(order[i])
		sj, jok := b.registry.seqOf(order[j])
		switch {
		case iok && jok:
			return si < sj
		case iok && !jok:
			return true
		case !iok && jok:
			return false
		default:
			return order[i] < order[j]
		}
	})

	logger.Debug("Plan built.", "nodeCount", len(descriptors), "targets", len(b.targets))
	return &Plan{
		targets:     append([]Identity(nil), b.targets...),
		descriptors: descriptors,
		seed:        seeded,
		dependents:  dependents,
		inDegree:    inDegree,
		order:       order,
	}, nil
}

// cyclePath reconstructs the path from the grey ancestor equal to closing
// back to itself, walking parent pointers from the edge that closed the
// cycle (from -> closing).
func cyclePath(parent map[Identity]Identity, from, closing Identity) []Identity {
	path := []Identity{closing}
	cur := from
	for {
		path = append(path, cur)
		if cur == closing {
			break
		}
		next, ok := parent[cur]
		if !ok {
			break
		}
		cur = next
	}
	// path was built from -> ... -> closing; reverse to read closing -> ... -> from -> closing.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
