package local

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lookup resolves a bracket-chain field path such as "user[name]" against
// source. It returns false when a segment is missing or when the resolved
// value is itself a nested structure.
func Lookup(source map[string]any, field string) (string, bool) {
	if source == nil {
		return "", false
	}

	chain := fieldChain(field)
	if len(chain) == 0 {
		return "", false
	}

	var current any = source
	for _, segment := range chain {
		node, ok := current.(map[string]any)
		if !ok {
			return "", false
		}

		current, ok = node[segment]
		if !ok || current == nil {
			return "", false
		}
	}

	return scalarString(current)
}

// ExtractCredentials reads the username and password from the request body
// and falls back to the query for each field independently.
func ExtractCredentials(req Request, usernameField, passwordField string) (username, password string, ok bool) {
	if req == nil {
		return "", "", false
	}

	username = lookupEither(req, usernameField)
	password = lookupEither(req, passwordField)

	return username, password, username != "" && password != ""
}

func lookupEither(req Request, field string) string {
	if v, ok := Lookup(req.Body(), field); ok && v != "" {
		return v
	}
	if v, ok := Lookup(req.Query(), field); ok {
		return v
	}
	return ""
}

// fieldChain splits "a[b][c]" into ["a", "b", "c"]
func fieldChain(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(field, "]", ""), "[")
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case []byte:
		return string(val), true
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val), true
	default:
		// maps, slices and other composite values
		return "", false
	}
}
