package ordr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeErrOnlySetWhenFailed(t *testing.T) {
	completed := Outcome{Kind: Completed}
	assert.Nil(t, completed.Err())

	failed := Outcome{Kind: Failed, Node: Identity("n"), Reason: "boom"}
	err := failed.Err()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
