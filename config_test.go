package local_test

import (
	"testing"

	local "github.com/goliatone/go-auth-local"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*local.Config)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(*local.Config) {}},
		{name: "Custom fields", mutate: func(c *local.Config) {
			c.UsernameField = "user[email]"
			c.PasswordField = "user[password]"
		}},
		{name: "Zero iterations", mutate: func(c *local.Config) { c.Iterations = -1 }, wantErr: true},
		{name: "Negative key length", mutate: func(c *local.Config) { c.KeyLength = -10 }, wantErr: true},
		{name: "Unknown digest", mutate: func(c *local.Config) { c.Digest = "md5" }, wantErr: true},
		{name: "Password shares salt column", mutate: func(c *local.Config) {
			c.PasswordField = "secret"
			c.SaltField = "auth[secret]"
		}, wantErr: true},
		{name: "Username shares salt column", mutate: func(c *local.Config) {
			c.UsernameField = "salt"
		}, wantErr: true},
		{name: "Username shares password column", mutate: func(c *local.Config) {
			c.UsernameField = "user[password]"
		}, wantErr: true},
		{name: "Bracketed fields share a column", mutate: func(c *local.Config) {
			c.UsernameField = "login[name]"
			c.PasswordField = "pw[name]"
		}, wantErr: true},
		{name: "Missing model", mutate: func(c *local.Config) { c.ModelName = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := local.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
