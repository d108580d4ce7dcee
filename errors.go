package local

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeBadPassword        = "BAD_PASSWORD"
	TextCodeUserExists         = "USER_EXISTS"
	TextCodeEmptyString        = "EMPTY_STRING"
	TextCodeInvalidHashParams  = "INVALID_HASH_PARAMS"
	TextCodeStoreFailure       = "STORE_FAILURE"
	TextCodeHashingFailure     = "HASHING_FAILURE"
)

const (
	// MessageMissingCredentials is the default fail message when extraction fails
	MessageMissingCredentials = "Missing credentials"
	// MessageUserNotFound is the fail message for unknown usernames
	MessageUserNotFound = "User not found"
	// MessageBadPassword is the fail message for password mismatches
	MessageBadPassword = "Bad password"
)

// ErrMissingCredentials is the bad request error reported when either
// credential is absent from the request.
var ErrMissingCredentials = errors.New(MessageMissingCredentials, errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when no record matches the username
var ErrUserNotFound = errors.New(MessageUserNotFound, errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrBadPassword is returned when the derived key does not match the stored hash
var ErrBadPassword = errors.New(MessageBadPassword, errors.CategoryAuth).
	WithTextCode(TextCodeBadPassword).
	WithCode(errors.CodeUnauthorized)

// ErrUserExists is returned by stores when the username is already taken
var ErrUserExists = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString is returned when a username or password is empty
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyString).
	WithCode(errors.CodeBadRequest)

// ErrInvalidHashParams is returned when the key derivation parameters are unusable
var ErrInvalidHashParams = errors.New("invalid password hashing parameters", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidHashParams)

// NewStoreError wraps a backing store fault
func NewStoreError(err error, op string) *errors.Error {
	return internalError(err, "user store "+op+" failed", TextCodeStoreFailure)
}

// NewHashingError wraps a key derivation fault
func NewHashingError(err error) *errors.Error {
	return internalError(err, "password hashing failed", TextCodeHashingFailure)
}

// Wrap keeps the category of an *errors.Error source, these faults are
// always internal.
func internalError(err error, msg, textCode string) *errors.Error {
	wrapped := errors.Wrap(err, errors.CategoryInternal, msg)
	if wrapped == nil {
		return nil
	}
	wrapped.Category = errors.CategoryInternal
	return wrapped.WithTextCode(textCode).WithCode(errors.CodeInternal)
}

// IsNotFound reports whether err describes a missing user record
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.IsNotFound(err)
}

// IsConflict reports whether err describes a duplicate user record
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryConflict
	}

	return false
}

// isUniqueViolation matches driver level uniqueness errors, SQLite and
// Postgres word them differently.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
