package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/calendar-share/internal/persistence"
)

func TestStorageError(t *testing.T) {
	t.Parallel()

	var nilErr *StorageError
	assert.Equal(t, "", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())

	cause := errors.New("database is locked")
	err := storageError("list principals", cause)
	assert.EqualError(t, err, "storage: list principals: database is locked")
	assert.ErrorIs(t, err, cause)

	// already wrapped errors keep their original operation
	again := storageError("outer", fmt.Errorf("context: %w", err))
	var sErr *StorageError
	assert.ErrorAs(t, again, &sErr)
	assert.Equal(t, "list principals", sErr.Op)

	assert.Nil(t, storageError("noop", nil))
	assert.EqualError(t, &StorageError{Op: "ping"}, "storage: ping failed")
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	assert.Equal(t, "", nilErr.Error())
	assert.False(t, nilErr.HasErrors())

	vErr := &ValidationError{}
	assert.False(t, vErr.HasErrors())
	vErr.add("field", "bad")
	assert.True(t, vErr.HasErrors())
	assert.Equal(t, "validation failed", vErr.Error())
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrShareNotFound, "not_found"},
		{ErrPrincipalNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", persistence.ErrNotFound), "not_found"},
		{&StorageError{Op: "x", Err: persistence.ErrConstraintViolation}, "conflict"},
		{context.Canceled, "canceled"},
		{&ValidationError{FieldErrors: map[string]string{"a": "b"}}, "validation"},
		{&StorageError{Op: "x", Err: errors.New("io")}, "storage"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
