// Package ordr runs a set of interdependent producer functions as a
// directed acyclic graph: independent producers run in parallel, their
// outputs feed downstream producers, and a run can be stopped, resumed from
// a prior snapshot, or partially completed.
//
// A producer is registered once against a Registry, under the Identity of
// its output type:
//
//	r := ordr.NewRegistry()
//	r.Register(ordr.Producer0(ordr.Of[A](), fetchA))
//	r.Register(ordr.Producer1(ordr.Of[B](), ordr.Of[A](), computeB))
//
// A Builder resolves one or more targets against a Registry into an
// immutable Plan:
//
//	plan, err := ordr.NewBuilder(r).Add(ordr.Of[B]()).Build()
//
// A Worker drives a Plan to completion:
//
//	w := ordr.NewWorker(plan, context.Background())
//	w.Run()
//	outcome := w.GetOutput()
//
// Resuming a failed or cancelled run means building a new Plan seeded with
// the prior Outcome's snapshot:
//
//	plan, _ = ordr.NewBuilder(r).Add(ordr.Of[B]()).WithData(prior).Build()
package ordr
