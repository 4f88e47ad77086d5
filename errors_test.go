package reporter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError(t *testing.T) {
	base := errors.New("results file missing")
	err := NewRuntimeError(base)

	assert.Equal(t, "runtime error: results file missing", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, IsRuntimeError(err))
	assert.True(t, IsRuntimeError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsRuntimeError(base))
	assert.False(t, IsRuntimeError(nil))
}

func TestTestFailureError(t *testing.T) {
	err := NewTestFailureError("4 tests: 2 passed, 1 failed, 1 skipped")

	assert.Equal(t, "test failure: 4 tests: 2 passed, 1 failed, 1 skipped", err.Error())
	assert.True(t, IsTestFailureError(err))
	assert.True(t, IsTestFailureError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsTestFailureError(NewRuntimeError(errors.New("x"))))
	assert.False(t, IsRuntimeError(err))
}
