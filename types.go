package local

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Request exposes the payloads credentials are extracted from. Body is the
// primary payload (form or JSON data), Query the fallback.
type Request interface {
	Body() map[string]any
	Query() map[string]any
}

// Host receives the outcome of an authentication attempt. Exactly one
// method is called per Authenticate invocation.
type Host interface {
	Success(user *User, info Info)
	Fail(info Info)
	Error(err error)
}

// AuthenticationStrategy is the capability a host middleware invokes
type AuthenticationStrategy interface {
	Name() string
	Authenticate(ctx context.Context, req Request, host Host, opts ...AuthenticateOption)
}

// UserStore persists user records for the strategy
type UserStore interface {
	// EnsureSchema provisions the record schema if missing, it must be idempotent
	EnsureSchema(ctx context.Context) error
	// FindOne returns the user with the given username or an error
	// matching IsNotFound
	FindOne(ctx context.Context, username string) (*User, error)
	// Save inserts the record, returning ErrUserExists on duplicates
	Save(ctx context.Context, user *User) error
}

// VerifyFunc checks a username and password pair. A nil user with a nil
// error means the credentials were rejected and info says why.
type VerifyFunc func(ctx context.Context, username, password string) (*User, Info, error)

// VerifyRequestFunc is a VerifyFunc that also receives the original request
type VerifyRequestFunc func(ctx context.Context, req Request, username, password string) (*User, Info, error)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] LOCAL "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] LOCAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] LOCAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] LOCAL "+newline(format), args...)
}

// DefaultLogger returns the stdout logger strategies use unless configured
func DefaultLogger() Logger {
	return defLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything
func NopLogger() Logger {
	return nopLogger{}
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
