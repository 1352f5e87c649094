package ordr

import "reflect"

// Identity is the stable, globally-unique name of a node's output within a
// single job. It is derived from the producer's output type, the same role
// TypeId plays in the original Rust implementation this package ports.
type Identity string

// Of derives the Identity for a node whose output type is T. Two producers
// registered with the same output type collide on the same Identity;
// Builder.Build rejects that as a Collision when their dependency lists
// differ (see Registry.Register).
func Of[T any]() Identity {
	return Identity(reflect.TypeFor[T]().String())
}
