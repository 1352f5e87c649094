package ordr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type idTestA struct{ V int }
type idTestB struct{ V int }

func TestOf(t *testing.T) {
	a1 := Of[idTestA]()
	a2 := Of[idTestA]()
	b := Of[idTestB]()

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.Contains(t, string(a1), "idTestA")
}
