package local

// User is the authentication view of a stored record. Extra holds any
// columns the store carries beyond the three authentication fields.
type User struct {
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Salt         string         `json:"-"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Get returns an extra attribute
func (u *User) Get(key string) (any, bool) {
	if u == nil || u.Extra == nil {
		return nil, false
	}
	v, ok := u.Extra[key]
	return v, ok
}

// Set stores an extra attribute
func (u *User) Set(key string, val any) *User {
	if u.Extra == nil {
		u.Extra = make(map[string]any)
	}
	u.Extra[key] = val
	return u
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Extra != nil {
		c.Extra = make(map[string]any, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
