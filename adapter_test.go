package ordr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casperin/ordr/internal/blob"
)

type apIn1 struct{ V int }
type apIn2 struct{ V int }
type apOut struct{ Sum int }

func TestProducer0Invoke(t *testing.T) {
	id := Of[apOut]()
	d := Producer0(id, func(ctx context.Context) (apOut, error) { return apOut{Sum: 7}, nil })

	out, err := d.Invoke(context.Background(), nil)
	require.NoError(t, err)

	got, err := blob.Decode[apOut](out)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Sum)
}

func TestProducer2InvokeDecodesInOrder(t *testing.T) {
	id := Of[apOut]()
	d1, d2 := Of[apIn1](), Of[apIn2]()
	d := Producer2(id, d1, d2, func(ctx context.Context, a apIn1, b apIn2) (apOut, error) {
		return apOut{Sum: a.V + b.V}, nil
	})

	b1, _ := blob.Encode(apIn1{V: 3})
	b2, _ := blob.Encode(apIn2{V: 4})
	out, err := d.Invoke(context.Background(), []Blob{Blob(b1), Blob(b2)})
	require.NoError(t, err)

	got, err := blob.Decode[apOut](out)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Sum)
}

func TestProducerPropagatesFnError(t *testing.T) {
	id := Of[apOut]()
	boom := errors.New("boom")
	d := Producer0(id, func(ctx context.Context) (apOut, error) { return apOut{}, boom })

	_, err := d.Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestProducer1MissingDependencyBlob(t *testing.T) {
	id, dep := Of[apOut](), Of[apIn1]()
	d := Producer1(id, dep, func(ctx context.Context, a apIn1) (apOut, error) { return apOut{}, nil })

	_, err := d.Invoke(context.Background(), nil)
	assert.Error(t, err)
}
