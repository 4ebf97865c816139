package apitest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestIDString(t *testing.T) {
	assert.Equal(t, "", TestID{}.String())
	assert.Equal(t, "get beer", TestID{"get beer"}.String())
	assert.Equal(t, "get beer/by id", TestID{"get beer", "by id"}.String())
	assert.Equal(t, "get beer/by id/1", TestID{"get beer", "by id", "1"}.String())
}

func TestTestIDPlus(t *testing.T) {
	assert.Equal(t, TestID{"name 1"}, TestID{}.Plus("name 1"))
	assert.Equal(t, TestID{"name 1", "name 2"}, TestID{}.Plus("name 1").Plus("name 2"))

	id1 := TestID{"name 1"}
	id2a := id1.Plus("name 2a")
	id2b := id1.Plus("name 2b")
	assert.Equal(t, TestID{"name 1"}, id1)
	assert.Equal(t, TestID{"name 1", "name 2a"}, id2a)
	assert.Equal(t, TestID{"name 1", "name 2b"}, id2b)
}

func TestResultsOK(t *testing.T) {
	assert.True(t, Results{}.OK())
	assert.True(t, Results{NonCriticalFailures: []TestResult{{TestID: TestID{"a"}}}}.OK())
	assert.False(t, Results{Failures: []TestResult{{TestID: TestID{"a"}}}}.OK())
}

func TestTestFailureError(t *testing.T) {
	f := TestFailure{ID: TestID{"delete beer", "twice"}, Err: errors.New("no")}
	assert.Equal(t, "[delete beer/twice]: no", f.Error())
}
