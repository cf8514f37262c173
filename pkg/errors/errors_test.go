package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsAndChecks(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
		code  string
	}{
		{"validation", NewValidation(CodeInvalidDepth, "bad depth"), IsValidation, CodeInvalidDepth},
		{"not found", NewNotFound(CodeStartNodeNotFound, "no such node"), IsNotFound, CodeStartNodeNotFound},
		{"timeout", NewTimeout(CodePathTimeout, "too slow"), IsTimeout, CodePathTimeout},
		{"transient", NewTransient("db down", errors.New("conn refused")), IsTransient, CodeStorageFailure},
		{"internal", NewInternal("boom", nil), IsInternal, CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
			assert.Equal(t, tc.code, CodeOf(tc.err))
		})
	}
}

func TestChecksThroughWrapping(t *testing.T) {
	inner := NewNotFound(CodeNodeNotFound, "gone")
	wrapped := fmt.Errorf("loading node: %w", inner)

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, CodeNodeNotFound, CodeOf(wrapped))
	assert.False(t, IsValidation(wrapped))
}

func TestWithOperation(t *testing.T) {
	err := WithOperation(NewTransient("db down", nil), "UpsertNode")

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UpsertNode", appErr.Operation)

	// non-AppError values pass through unchanged
	plain := errors.New("plain")
	assert.Equal(t, plain, WithOperation(plain, "op"))
}

func TestWrap(t *testing.T) {
	t.Run("preserves type and code of an AppError", func(t *testing.T) {
		err := Wrap(NewValidation(CodeInvalidFilter, "bad filter"), "parsing request")
		assert.True(t, IsValidation(err))
		assert.Equal(t, CodeInvalidFilter, CodeOf(err))
		assert.Contains(t, err.Error(), "parsing request")
	})

	t.Run("foreign errors become internal", func(t *testing.T) {
		err := Wrap(errors.New("oops"), "doing work")
		assert.True(t, IsInternal(err))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})
}

func TestCodeOfUnknownError(t *testing.T) {
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}
