package ordr

import (
	"context"
	"fmt"

	"github.com/casperin/ordr/internal/blob"
)

// Producer0 builds a Descriptor for a zero-dependency producer: fn is
// invoked with just the context, and its result is serialized under id.
func Producer0[Out any](id Identity, fn func(ctx context.Context) (Out, error)) Descriptor {
	return Descriptor{
		Identity: id,
		Invoke: func(ctx context.Context, deps []Blob) (Blob, error) {
			out, err := fn(ctx)
			if err != nil {
				return nil, err
			}
			return encodeOut(id, out)
		},
	}
}

// Producer1 builds a Descriptor for a producer with a single dependency
// dep1, generalizing the adapter the authoring layer would otherwise
// generate per producer signature: the invoker deserializes the one
// dependency blob into D1, forwards to fn, and serializes its result.
func Producer1[D1, Out any](id, dep1 Identity, fn func(ctx context.Context, d1 D1) (Out, error)) Descriptor {
	return Descriptor{
		Identity:     id,
		Dependencies: []Identity{dep1},
		Invoke: func(ctx context.Context, deps []Blob) (Blob, error) {
			a, err := decodeDep[D1](id, dep1, deps, 0)
			if err != nil {
				return nil, err
			}
			out, err := fn(ctx, a)
			if err != nil {
				return nil, err
			}
			return encodeOut(id, out)
		},
	}
}

// Producer2 builds a Descriptor for a producer depending on two upstream
// nodes, dep1 and dep2, in that declared order.
func Producer2[D1, D2, Out any](id, dep1, dep2 Identity, fn func(ctx context.Context, d1 D1, d2 D2) (Out, error)) Descriptor {
	return Descriptor{
		Identity:     id,
		Dependencies: []Identity{dep1, dep2},
		Invoke: func(ctx context.Context, deps []Blob) (Blob, error) {
			a, err := decodeDep[D1](id, dep1, deps, 0)
			if err != nil {
				return nil, err
			}
			b, err := decodeDep[D2](id, dep2, deps, 1)
			if err != nil {
				return nil, err
			}
			out, err := fn(ctx, a, b)
			if err != nil {
				return nil, err
			}
			return encodeOut(id, out)
		},
	}
}

// Producer3 builds a Descriptor for a producer depending on three upstream
// nodes, dep1 through dep3, in that declared order.
func Producer3[D1, D2, D3, Out any](id, dep1, dep2, dep3 Identity, fn func(ctx context.Context, d1 D1, d2 D2, d3 D3) (Out, error)) Descriptor {
	return Descriptor{
		Identity:     id,
		Dependencies: []Identity{dep1, dep2, dep3},
		Invoke: func(ctx context.Context, deps []Blob) (Blob, error) {
			a, err := decodeDep[D1](id, dep1, deps, 0)
			if err != nil {
				return nil, err
			}
			b, err := decodeDep[D2](id, dep2, deps, 1)
			if err != nil {
				return nil, err
			}
			c, err := decodeDep[D3](id, dep3, deps, 2)
			if err != nil {
				return nil, err
			}
			out, err := fn(ctx, a, b, c)
			if err != nil {
				return nil, err
			}
			return encodeOut(id, out)
		},
	}
}

func decodeDep[T any](node, depID Identity, deps []Blob, i int) (T, error) {
	var zero T
	if i >= len(deps) {
		return zero, fmt.Errorf("ordr: node %q: missing dependency value for %q", node, depID)
	}
	v, err := blob.Decode[T](deps[i])
	if err != nil {
		return zero, fmt.Errorf("ordr: node %q: deserialize dependency %q: %w", node, depID, err)
	}
	return v, nil
}

func encodeOut(node Identity, out any) (Blob, error) {
	b, err := blob.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("ordr: node %q: serialize output: %w", node, err)
	}
	return b, nil
}
