package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	local "github.com/goliatone/go-auth-local"
)

func noEnv() []string { return nil }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "localauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", WithEnviron(noEnv))
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, local.DefaultConfig().Digest, cfg.StrategyConfig().Digest)
	assert.Equal(t, "local", cfg.Strategy.Name)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
debug: true
database:
  dsn: "file:users.db"
strategy:
  username_field: "user[email]"
  model_name: Person
  iterations: 2000
  digest: sha256
http:
  addr: ":9000"
  read_timeout: 3s
`)

	cfg, err := Load(path, WithEnviron(noEnv))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "file:users.db", cfg.Database.DSN)
	assert.Equal(t, "user[email]", cfg.Strategy.UsernameField)
	assert.Equal(t, "Person", cfg.Strategy.ModelName)
	assert.Equal(t, 2000, cfg.Strategy.Iterations)
	assert.Equal(t, local.DigestSHA256, cfg.Strategy.Digest)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)

	// untouched keys keep their defaults
	assert.Equal(t, local.DefaultPasswordField, cfg.Strategy.PasswordField)
	assert.Equal(t, local.DefaultKeyLength, cfg.Strategy.KeyLength)
	assert.Equal(t, "/login", cfg.HTTP.LoginPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
strategy:
  iterations: 2000
`)

	cfg, err := Load(path, WithEnviron(func() []string {
		return []string{
			"LOCALAUTH_STRATEGY__ITERATIONS=5000",
			"LOCALAUTH_STRATEGY__FOLD_STORE_ERRORS=true",
			"LOCALAUTH_HTTP__WRITE_TIMEOUT=1m",
			"LOCALAUTH_DEBUG=1",
			"OTHER_STRATEGY__ITERATIONS=1",
		}
	}))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Strategy.Iterations)
	assert.True(t, cfg.Strategy.FoldStoreErrors)
	assert.Equal(t, time.Minute, cfg.HTTP.WriteTimeout)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.StrategyConfig().FoldStoreErrors)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), WithEnviron(noEnv))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoad_InvalidStrategy(t *testing.T) {
	path := writeConfig(t, `
strategy:
  digest: md5
`)

	_, err := Load(path, WithEnviron(noEnv))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestLoad_InvalidHTTP(t *testing.T) {
	_, err := Load("", WithEnviron(func() []string {
		return []string{"LOCALAUTH_HTTP__LOGIN_PATH="}
	}))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "LOCALAUTH_DEBUG", want: "debug"},
		{raw: "LOCALAUTH_HTTP__ADDR", want: "http.addr"},
		{raw: "LOCALAUTH_STRATEGY__SALT_LENGTH", want: "strategy.salt_length"},
		{raw: "LOCALAUTH_", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, _ := envKey(tt.raw, "x")
			assert.Equal(t, tt.want, got)
		})
	}
}
