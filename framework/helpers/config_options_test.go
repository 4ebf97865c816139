package helpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type optTarget struct {
	names []string
}

type optFunc func(*optTarget) error

func (f optFunc) Configure(t *optTarget) error { return f(t) }

func addName(name string) optFunc {
	return func(t *optTarget) error {
		t.names = append(t.names, name)
		return nil
	}
}

func TestApplyOptions(t *testing.T) {
	var target optTarget
	assert.NoError(t, ApplyOptions(&target, addName("a"), addName("b")))
	assert.Equal(t, []string{"a", "b"}, target.names)

	var target2 optTarget
	err := errors.New("bad option")
	assert.Equal(t, err, ApplyOptions(&target2, addName("a"), optFunc(func(*optTarget) error { return err }), addName("c")))
	assert.Equal(t, []string{"a"}, target2.names)
}
