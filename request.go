package local

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// MaxBodyBytes bounds how much of a JSON body RequestFromHTTP reads
var MaxBodyBytes int64 = 1 << 20

type staticRequest struct {
	body  map[string]any
	query map[string]any
}

func (r staticRequest) Body() map[string]any  { return r.body }
func (r staticRequest) Query() map[string]any { return r.query }

// NewRequest builds a Request from already decoded payloads
func NewRequest(body, query map[string]any) Request {
	return staticRequest{body: body, query: query}
}

// RequestFromHTTP decodes an *http.Request. JSON bodies are decoded as is,
// url encoded and multipart forms go through ParseFormValues.
func RequestFromHTTP(r *http.Request) (Request, error) {
	req := staticRequest{
		query: ParseFormValues(r.URL.Query()),
	}

	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return req, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		body := map[string]any{}
		dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && err != io.EOF {
			return nil, err
		}
		req.body = body
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return nil, err
		}
		req.body = ParseFormValues(r.PostForm)
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req.body = ParseFormValues(r.PostForm)
	}

	return req, nil
}

// ParseFormValues turns flat form keys into nested maps, so that
// "user[name]=alice" becomes {"user": {"name": "alice"}}. Keys with a
// single value map to a string, repeated keys to a []any. When a key is
// both a scalar and a parent ("user" and "user[name]") the nested map wins.
func ParseFormValues(values url.Values) map[string]any {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := map[string]any{}
	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}

		var value any = vals[0]
		if len(vals) > 1 {
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			value = list
		}

		setPath(out, fieldChain(key), value)
	}
	return out
}

func setPath(root map[string]any, chain []string, value any) {
	if len(chain) == 0 {
		return
	}

	node := root
	for _, segment := range chain[:len(chain)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[segment] = next
		}
		node = next
	}

	leaf := chain[len(chain)-1]
	if _, isMap := node[leaf].(map[string]any); isMap {
		return
	}
	node[leaf] = value
}
