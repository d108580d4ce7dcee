package local

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/uptrace/bun"
)

const (
	DefaultUsernameField = "username"
	DefaultPasswordField = "password"
	DefaultSaltField     = "salt"
	DefaultModelName     = "User"
)

// Config holds the strategy options. It is resolved once by New and never
// changes afterwards.
type Config struct {
	// UsernameField is the request field path and record column of the username
	UsernameField string
	// PasswordField is the request field path of the password and the record
	// column of the password hash
	PasswordField string
	// SaltField is the record column of the salt
	SaltField string
	// ModelName is the logical record type, its plural lower case form is
	// used as table name
	ModelName string
	// Connection is the database backing the default SQL store. A nil
	// Connection opens a private in-memory SQLite database.
	Connection *bun.DB
	// Store replaces the SQL store entirely
	Store UserStore
	// PassReqToCallback makes the verify step receive the original request
	PassReqToCallback bool
	// FoldStoreErrors reports store faults as Fail instead of Error
	FoldStoreErrors bool

	SaltLength int
	Iterations int
	KeyLength  int
	Digest     string
}

// DefaultConfig returns a Config with every default filled in
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.UsernameField == "" {
		c.UsernameField = DefaultUsernameField
	}
	if c.PasswordField == "" {
		c.PasswordField = DefaultPasswordField
	}
	if c.SaltField == "" {
		c.SaltField = DefaultSaltField
	}
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	if c.SaltLength == 0 {
		c.SaltLength = DefaultSaltLength
	}
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.KeyLength == 0 {
		c.KeyLength = DefaultKeyLength
	}
	if c.Digest == "" {
		c.Digest = DefaultDigest
	}
	return c
}

// Validate checks a config after defaults have been applied
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UsernameField, validation.Required, validation.Length(1, 128),
			validation.By(distinctFrom("password", c.PasswordField)),
			validation.By(distinctFrom("salt", c.SaltField)),
		),
		validation.Field(&c.PasswordField, validation.Required, validation.Length(1, 128),
			validation.By(distinctFrom("salt", c.SaltField)),
		),
		validation.Field(&c.SaltField, validation.Required, validation.Length(1, 128)),
		validation.Field(&c.ModelName, validation.Required, validation.Length(1, 64)),
		validation.Field(&c.SaltLength, validation.Min(1)),
		validation.Field(&c.Iterations, validation.Min(1)),
		validation.Field(&c.KeyLength, validation.Min(1)),
		validation.Field(&c.Digest, validation.In(DigestSHA1, DigestSHA256, DigestSHA512)),
	)
}

// distinctFrom rejects a field that stores into the same column as other,
// "login[name]" and "pw[name]" both store into "name".
func distinctFrom(label, other string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" || other == "" {
			return nil
		}
		if columnName(s) == columnName(other) {
			return errors.New("must not share a column with the " + label + " field")
		}
		return nil
	}
}
