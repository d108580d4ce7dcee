package local_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	local "github.com/goliatone/go-auth-local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormValues(t *testing.T) {
	values := url.Values{
		"user[name]":     {"alice"},
		"user[password]": {"secret"},
		"plain":          {"value"},
		"tags":           {"a", "b"},
	}

	parsed := local.ParseFormValues(values)

	user, ok := parsed["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", user["name"])
	assert.Equal(t, "secret", user["password"])
	assert.Equal(t, "value", parsed["plain"])
	assert.Equal(t, []any{"a", "b"}, parsed["tags"])

	name, found := local.Lookup(parsed, "user[name]")
	assert.True(t, found)
	assert.Equal(t, "alice", name)

	_, found = local.Lookup(parsed, "tags")
	assert.False(t, found)
}

func TestParseFormValuesNestedWins(t *testing.T) {
	values := url.Values{
		"user":       {"alice"},
		"user[name]": {"bob"},
		"a[b]":       {"x"},
		"a[b][c]":    {"y"},
	}

	for i := 0; i < 50; i++ {
		parsed := local.ParseFormValues(values)

		_, found := local.Lookup(parsed, "user")
		assert.False(t, found)

		name, found := local.Lookup(parsed, "user[name]")
		assert.True(t, found)
		assert.Equal(t, "bob", name)

		c, found := local.Lookup(parsed, "a[b][c]")
		assert.True(t, found)
		assert.Equal(t, "y", c)
	}
}

func TestRequestFromHTTP(t *testing.T) {
	t.Run("Url encoded form", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"secret"}}
		r := httptest.NewRequest(http.MethodPost, "/login?next=/home", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		req, err := local.RequestFromHTTP(r)
		require.NoError(t, err)

		username, password, ok := local.ExtractCredentials(req, "username", "password")
		assert.True(t, ok)
		assert.Equal(t, "alice", username)
		assert.Equal(t, "secret", password)
		assert.Equal(t, "/home", req.Query()["next"])
	})

	t.Run("JSON body", func(t *testing.T) {
		body := `{"user":{"name":"bob","pass":"hunter22"}}`
		r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		req, err := local.RequestFromHTTP(r)
		require.NoError(t, err)

		username, password, ok := local.ExtractCredentials(req, "user[name]", "user[pass]")
		assert.True(t, ok)
		assert.Equal(t, "bob", username)
		assert.Equal(t, "hunter22", password)
	})

	t.Run("JSON numbers keep their digits", func(t *testing.T) {
		body := `{"username":12345678901234567890,"password":4242}`
		r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")

		req, err := local.RequestFromHTTP(r)
		require.NoError(t, err)

		username, password, ok := local.ExtractCredentials(req, "username", "password")
		assert.True(t, ok)
		assert.Equal(t, "12345678901234567890", username)
		assert.Equal(t, "4242", password)
	})

	t.Run("Multipart form", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		require.NoError(t, w.WriteField("username", "carol"))
		require.NoError(t, w.WriteField("password", "pw"))
		require.NoError(t, w.Close())

		r := httptest.NewRequest(http.MethodPost, "/login", buf)
		r.Header.Set("Content-Type", w.FormDataContentType())

		req, err := local.RequestFromHTTP(r)
		require.NoError(t, err)

		username, _, ok := local.ExtractCredentials(req, "username", "password")
		assert.True(t, ok)
		assert.Equal(t, "carol", username)
	})

	t.Run("Query only on GET", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/login?username=dave&password=pw", nil)

		req, err := local.RequestFromHTTP(r)
		require.NoError(t, err)
		assert.Nil(t, req.Body())

		username, password, ok := local.ExtractCredentials(req, "username", "password")
		assert.True(t, ok)
		assert.Equal(t, "dave", username)
		assert.Equal(t, "pw", password)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":`))
		r.Header.Set("Content-Type", "application/json")

		_, err := local.RequestFromHTTP(r)
		assert.Error(t, err)
	})
}
