package mermaid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casperin/ordr"
)

type mmA struct{ V int }
type mmB struct{ V int }
type mmC struct{ V int }

func TestRenderDiamond(t *testing.T) {
	r := ordr.NewRegistry()
	r.Register(ordr.Producer0(ordr.Of[mmA](), func(ctx context.Context) (mmA, error) { return mmA{}, nil }))
	r.Register(ordr.Producer1(ordr.Of[mmB](), ordr.Of[mmA](), func(ctx context.Context, a mmA) (mmB, error) {
		return mmB{}, nil
	}))
	r.Register(ordr.Producer1(ordr.Of[mmC](), ordr.Of[mmA](), func(ctx context.Context, a mmA) (mmC, error) {
		return mmC{}, nil
	}))

	plan, err := ordr.NewBuilder(r).Add(ordr.Of[mmB]()).Add(ordr.Of[mmC]()).Build()
	require.NoError(t, err)

	out := Render(plan)
	assert.Contains(t, out, "flowchart LR")
	assert.Contains(t, out, string(ordr.Of[mmA]()))
	assert.Contains(t, out, " --> ")
}

func TestRenderEmptyPlan(t *testing.T) {
	r := ordr.NewRegistry()
	plan, err := ordr.NewBuilder(r).Build()
	require.NoError(t, err)

	out := Render(plan)
	assert.Equal(t, "flowchart LR", out)
}
