package local_test

import (
	"errors"
	"testing"

	local "github.com/goliatone/go-auth-local"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrMissingCredentials", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryBadInput, local.ErrMissingCredentials.Category)
		assert.Equal(t, local.TextCodeMissingCredentials, local.ErrMissingCredentials.TextCode)
		assert.Equal(t, "Missing credentials", local.ErrMissingCredentials.Message)
	})

	t.Run("ErrUserNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, local.ErrUserNotFound.Category)
		assert.Equal(t, "User not found", local.ErrUserNotFound.Message)
	})

	t.Run("ErrBadPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, local.ErrBadPassword.Category)
		assert.Equal(t, "Bad password", local.ErrBadPassword.Message)
	})

	t.Run("ErrUserExists", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, local.ErrUserExists.Category)
		assert.Equal(t, local.TextCodeUserExists, local.ErrUserExists.TextCode)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, local.ErrNoEmptyString.Category)
		assert.Equal(t, local.TextCodeEmptyString, local.ErrNoEmptyString.TextCode)
	})
}

func TestWrappedErrors(t *testing.T) {
	cause := errors.New("socket closed")

	storeErr := local.NewStoreError(cause, "find")
	assert.Equal(t, goerrors.CategoryInternal, storeErr.Category)
	assert.Equal(t, local.TextCodeStoreFailure, storeErr.TextCode)

	hashErr := local.NewHashingError(cause)
	assert.Equal(t, goerrors.CategoryInternal, hashErr.Category)
	assert.Equal(t, local.TextCodeHashingFailure, hashErr.TextCode)
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
		conflict bool
	}{
		{name: "Nil", err: nil},
		{name: "Plain error", err: errors.New("boom")},
		{name: "Not found", err: local.ErrUserNotFound, notFound: true},
		{name: "Conflict", err: local.ErrUserExists, conflict: true},
		{name: "Store failure", err: local.NewStoreError(errors.New("x"), "save")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, local.IsNotFound(tt.err))
			assert.Equal(t, tt.conflict, local.IsConflict(tt.err))
		})
	}
}
