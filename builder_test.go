package ordr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casperin/ordr/internal/blob"
)

type bA struct{ V int }
type bB struct{ V int }
type bC struct{ V int }
type bD struct{ V int }

func producerA(r *Registry) {
	r.Register(Producer0(Of[bA](), func(ctx context.Context) (bA, error) { return bA{V: 1}, nil }))
}

func TestBuildEmptyTargets(t *testing.T) {
	r := NewRegistry()
	plan, err := NewBuilder(r).Build()
	require.NoError(t, err)
	assert.Empty(t, plan.Targets())
	assert.Empty(t, plan.Nodes())
}

func TestBuildSingleNode(t *testing.T) {
	r := NewRegistry()
	producerA(r)

	plan, err := NewBuilder(r).Add(Of[bA]()).Build()
	require.NoError(t, err)
	assert.Equal(t, []Identity{Of[bA]()}, plan.Nodes())
	assert.Equal(t, 0, plan.InDegree(Of[bA]()))
}

func TestBuildUnknownNode(t *testing.T) {
	r := NewRegistry()
	r.Register(Producer1(Of[bB](), Of[bA](), func(ctx context.Context, a bA) (bB, error) {
		return bB{V: a.V}, nil
	}))

	_, err := NewBuilder(r).Add(Of[bB]()).Build()
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, UnknownNode, buildErr.KindOf())
	assert.Equal(t, Of[bA](), buildErr.Node)
}

func TestBuildInvalidTarget(t *testing.T) {
	r := NewRegistry()
	_, err := NewBuilder(r).Add(Of[bA]()).Build()
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, InvalidTarget, buildErr.KindOf())
}

func TestBuildCollision(t *testing.T) {
	r := NewRegistry()
	r.Register(Producer0(Of[bA](), func(ctx context.Context) (bA, error) { return bA{}, nil }))
	r.Register(Producer1(Of[bA](), Of[bB](), func(ctx context.Context, b bB) (bA, error) { return bA{}, nil }))

	_, err := NewBuilder(r).Add(Of[bA]()).Build()
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, Collision, buildErr.KindOf())
}

func TestBuildCycle(t *testing.T) {
	r := NewRegistry()
	r.Register(Producer1(Of[bA](), Of[bB](), func(ctx context.Context, b bB) (bA, error) { return bA{}, nil }))
	r.Register(Producer1(Of[bB](), Of[bA](), func(ctx context.Context, a bA) (bB, error) { return bB{}, nil }))

	_, err := NewBuilder(r).Add(Of[bA]()).Build()
	require.Error(t, err)
	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, Cycle, buildErr.KindOf())
	assert.Contains(t, buildErr.Path, Of[bA]())
	assert.Contains(t, buildErr.Path, Of[bB]())
}

func TestBuildSeedReduction(t *testing.T) {
	// D depends on C, C depends on B, B depends on A. Seeding C should
	// prune A and B entirely: neither is registered, yet Build succeeds
	// because they are never visited.
	r := NewRegistry()
	r.Register(Producer1(Of[bD](), Of[bC](), func(ctx context.Context, c bC) (bD, error) {
		return bD{V: c.V}, nil
	}))

	seed := Snapshot{Of[bC](): mustEncode(t, bC{V: 5})}
	plan, err := NewBuilder(r).Add(Of[bD]()).WithData(seed).Build()
	require.NoError(t, err)

	assert.True(t, plan.IsSeeded(Of[bC]()))
	_, ok := plan.Descriptor(Of[bA]())
	assert.False(t, ok)
	_, ok = plan.Descriptor(Of[bB]())
	assert.False(t, ok)
	assert.Equal(t, 1, plan.InDegree(Of[bD]()))
}

func TestBuildSeedNotReachedIsIgnored(t *testing.T) {
	r := NewRegistry()
	producerA(r)

	seed := Snapshot{Of[bB](): mustEncode(t, bB{V: 1})}
	plan, err := NewBuilder(r).Add(Of[bA]()).WithData(seed).Build()
	require.NoError(t, err)
	assert.False(t, plan.IsSeeded(Of[bA]()))
	_, ok := plan.Descriptor(Of[bA]())
	assert.True(t, ok)
}

func mustEncode(t *testing.T, v any) Blob {
	t.Helper()
	b, err := blob.Encode(v)
	require.NoError(t, err)
	return Blob(b)
}
