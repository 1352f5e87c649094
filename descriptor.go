package ordr

import "context"

// Blob is an opaque, serialized node value. The core never inspects a Blob's
// contents; it only stores, copies, and hands it to invokers. The format is
// chosen by whatever encodes and decodes it (see internal/blob), as long as
// it round-trips.
type Blob []byte

// Invoker is the type-erased adapter a Descriptor carries: given a context
// and the node's dependency values in declared order (each already fetched
// from the Store and still serialized), it produces the node's own
// serialized output or a failure reason. Deserializing each dependency blob
// into its concrete type, and serializing the result back, is the invoker's
// job, not the scheduler's.
type Invoker func(ctx context.Context, deps []Blob) (Blob, error)

// Descriptor is the registered, immutable metadata for one producer: its
// output Identity, the ordered Identities of the values its Invoker expects,
// and the Invoker itself. Two Descriptors under the same Identity count as
// the same registration when their dependency lists match (see sameShape);
// Register records a second Descriptor with a different dependency list as
// a conflict, which Builder.Build reports as a Collision.
type Descriptor struct {
	Identity     Identity
	Dependencies []Identity
	Invoke       Invoker
}

// sameShape reports whether two descriptors registered under the same
// Identity are the same descriptor in all but pointer identity of Invoke —
// used only to allow re-registering the literal same Descriptor value
// (idempotent registration), not to compare function bodies. It does not
// compare Invoke at all: Go funcs aren't comparable, so a differing invoker
// with an identical dependency list is indistinguishable from a
// re-registration here and will not be reported as a collision, looser than
// collision detection on "a different dependency list or invoker" would be.
func (d Descriptor) sameShape(other Descriptor) bool {
	if d.Identity != other.Identity {
		return false
	}
	if len(d.Dependencies) != len(other.Dependencies) {
		return false
	}
	for i, dep := range d.Dependencies {
		if other.Dependencies[i] != dep {
			return false
		}
	}
	return true
}
