package ordr

import "fmt"

// BuildErrorKind distinguishes the ways a Builder can refuse to produce a Plan.
type BuildErrorKind int

const (
	// UnknownNode means a descriptor referenced a dependency Identity that
	// was never registered.
	UnknownNode BuildErrorKind = iota
	// Cycle means the dependency graph reachable from the targets contains
	// a cycle.
	Cycle
	// Collision means two distinct descriptors were registered under the
	// same Identity.
	Collision
	// InvalidTarget means Add was called with an Identity that has no
	// registered descriptor and is not present in the seed data.
	InvalidTarget
)

func (k BuildErrorKind) String() string {
	switch k {
	case UnknownNode:
		return "UnknownNode"
	case Cycle:
		return "Cycle"
	case Collision:
		return "Collision"
	case InvalidTarget:
		return "InvalidTarget"
	default:
		return "Unknown"
	}
}

// BuildError is returned synchronously from Builder.Build. No run occurs
// when a BuildError is returned.
type BuildError struct {
	Node Identity // set for UnknownNode, Collision, InvalidTarget
	Path []Identity // set for Cycle: the offending path, first node repeated at the end
	kind BuildErrorKind
}

func newBuildError(kind BuildErrorKind, id Identity) *BuildError {
	return &BuildError{kind: kind, Node: id}
}

func newCycleError(path []Identity) *BuildError {
	return &BuildError{kind: Cycle, Path: path}
}

// KindOf reports which failure mode this BuildError represents.
func (e *BuildError) KindOf() BuildErrorKind { return e.kind }

func (e *BuildError) Error() string {
	switch e.kind {
	case UnknownNode:
		return fmt.Sprintf("ordr: unknown node %q referenced as a dependency", e.Node)
	case Cycle:
		return fmt.Sprintf("ordr: cycle detected: %s", joinIdentities(e.Path))
	case Collision:
		return fmt.Sprintf("ordr: two descriptors registered for node %q", e.Node)
	case InvalidTarget:
		return fmt.Sprintf("ordr: target %q has no registered descriptor", e.Node)
	default:
		return "ordr: build error"
	}
}

func joinIdentities(ids []Identity) string {
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += " -> "
		}
		s += string(id)
	}
	return s
}

// Failure describes a producer or internal error that terminated a run at a
// specific node.
type Failure struct {
	Node   Identity
	Reason string
	// err, when set, is the underlying error that produced Reason; it is
	// unwrapped by Failure.Unwrap so callers can errors.Is/As through it.
	err error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("ordr: node %q failed: %s", f.Node, f.Reason)
}

// Unwrap exposes the underlying error, if any. A Failure returned by
// Outcome.Err wraps an error rebuilt from the Reason text alone, so the
// original producer or internal consistency error (missing value,
// deserialize failure, double-put) is not reachable through it with
// errors.Is/errors.As.
func (f *Failure) Unwrap() error { return f.err }

func newFailure(node Identity, err error) *Failure {
	return &Failure{Node: node, Reason: err.Error(), err: err}
}
