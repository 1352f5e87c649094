package ordr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeVal struct{ V int }

func TestStorePutGetBlob(t *testing.T) {
	s := NewStore()
	id := Of[storeVal]()

	require.NoError(t, s.Put(id, Blob("hello")))
	assert.True(t, s.Contains(id))

	got, ok := s.GetBlob(id)
	require.True(t, ok)
	assert.Equal(t, Blob("hello"), got)
}

func TestStoreWriteOnce(t *testing.T) {
	s := NewStore()
	id := Of[storeVal]()

	require.NoError(t, s.Put(id, Blob("first")))
	err := s.Put(id, Blob("second"))
	assert.Error(t, err)

	got, _ := s.GetBlob(id)
	assert.Equal(t, Blob("first"), got)
}

func TestStoreGetBlobReturnsCopy(t *testing.T) {
	s := NewStore()
	id := Of[storeVal]()
	original := Blob{1, 2, 3}
	require.NoError(t, s.Put(id, original))

	got, _ := s.GetBlob(id)
	got[0] = 99

	again, _ := s.GetBlob(id)
	assert.Equal(t, byte(1), again[0])
}

func TestStoreTypedGetPut(t *testing.T) {
	s := NewStore()
	id := Of[storeVal]()

	require.NoError(t, Put(s, id, storeVal{V: 42}))
	got, err := Get[storeVal](s, id)
	require.NoError(t, err)
	assert.Equal(t, 42, got.V)
}

func TestStoreGetMissing(t *testing.T) {
	s := NewStore()
	_, err := Get[storeVal](s, Of[storeVal]())
	assert.Error(t, err)
}

func TestStoreSnapshotIsIndependentCopy(t *testing.T) {
	s := NewStore()
	id := Of[storeVal]()
	require.NoError(t, s.Put(id, Blob("v")))

	snap := s.Snapshot()
	snap[id][0] = 'x'

	got, _ := s.GetBlob(id)
	assert.Equal(t, Blob("v"), got)
}
