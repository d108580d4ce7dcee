// Package config loads the localauth command configuration from an
// optional YAML file and LOCALAUTH_ environment variables.
package config

import (
	"os"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	local "github.com/goliatone/go-auth-local"
)

// EnvPrefix selects the environment variables read by Load. A double
// underscore separates nesting levels: LOCALAUTH_HTTP__ADDR sets http.addr.
const EnvPrefix = "LOCALAUTH_"

type Config struct {
	Debug bool `koanf:"debug"`

	Database struct {
		// DSN is a SQLite data source, empty means in memory
		DSN string `koanf:"dsn"`
	} `koanf:"database"`

	Strategy struct {
		Name              string `koanf:"name"`
		UsernameField     string `koanf:"username_field"`
		PasswordField     string `koanf:"password_field"`
		SaltField         string `koanf:"salt_field"`
		ModelName         string `koanf:"model_name"`
		SaltLength        int    `koanf:"salt_length"`
		Iterations        int    `koanf:"iterations"`
		KeyLength         int    `koanf:"key_length"`
		Digest            string `koanf:"digest"`
		FoldStoreErrors   bool   `koanf:"fold_store_errors"`
		BadRequestMessage string `koanf:"bad_request_message"`
	} `koanf:"strategy"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		LoginPath       string        `koanf:"login_path"`
		SuccessRedirect string        `koanf:"success_redirect"`
		FailureRedirect string        `koanf:"failure_redirect"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
	} `koanf:"http"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() *Config {
	cfg := &Config{}
	cfg.Strategy.Name = local.StrategyName
	cfg.Strategy.UsernameField = local.DefaultUsernameField
	cfg.Strategy.PasswordField = local.DefaultPasswordField
	cfg.Strategy.SaltField = local.DefaultSaltField
	cfg.Strategy.ModelName = local.DefaultModelName
	cfg.Strategy.SaltLength = local.DefaultSaltLength
	cfg.Strategy.Iterations = local.DefaultIterations
	cfg.Strategy.KeyLength = local.DefaultKeyLength
	cfg.Strategy.Digest = local.DefaultDigest
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.LoginPath = "/login"
	cfg.HTTP.ReadTimeout = 10 * time.Second
	cfg.HTTP.WriteTimeout = 10 * time.Second
	return cfg
}

type loadOptions struct {
	environ func() []string
}

// Option customizes Load
type Option func(*loadOptions)

// WithEnviron replaces os.Environ as the source of environment variables
func WithEnviron(fn func() []string) Option {
	return func(o *loadOptions) {
		o.environ = fn
	}
}

// Load reads path, if not empty, then applies environment overrides on
// top of Defaults.
func Load(path string, opts ...Option) (*Config, error) {
	o := &loadOptions{environ: os.Environ}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(err, errors.CategoryNotFound, "config file not found").
				WithMetadata(map[string]any{"path": path})
		}

		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "read config file failed").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		EnvironFunc:   o.environ,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "load env variables failed")
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return normalizeToken(mapKey) == normalizeToken(fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "unmarshal config failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the HTTP settings and the resulting strategy config
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.HTTP,
		validation.Field(&c.HTTP.Addr, validation.Required),
		validation.Field(&c.HTTP.LoginPath, validation.Required),
		validation.Field(&c.HTTP.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.HTTP.WriteTimeout, validation.Min(time.Duration(0))),
	); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid http config")
	}

	if err := validation.Validate(c.Strategy.Name, validation.Required); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid strategy name")
	}

	if err := c.StrategyConfig().Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid strategy config")
	}

	return nil
}

// StrategyConfig maps the loaded values onto a local.Config. The store
// and connection are left for the caller to wire.
func (c *Config) StrategyConfig() local.Config {
	return local.Config{
		UsernameField:   c.Strategy.UsernameField,
		PasswordField:   c.Strategy.PasswordField,
		SaltField:       c.Strategy.SaltField,
		ModelName:       c.Strategy.ModelName,
		SaltLength:      c.Strategy.SaltLength,
		Iterations:      c.Strategy.Iterations,
		KeyLength:       c.Strategy.KeyLength,
		Digest:          c.Strategy.Digest,
		FoldStoreErrors: c.Strategy.FoldStoreErrors,
	}
}

func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	if key == "" {
		return "", nil
	}
	return strings.ReplaceAll(key, "__", "."), v
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
