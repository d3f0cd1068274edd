package auth

import (
	"bytes"
	"encoding/json"
	"maps"
	"strings"
)

// User is the account profile returned by the accounts back-end.
// Fields the client does not model are kept in Extra and written back
// unchanged, so a persisted snapshot reloads with the full profile.
type User struct {
	ID         json.RawMessage
	Username   string
	Email      string
	FirstName  string
	LastName   string
	IsStaff    bool
	DateJoined string
	Extra      map[string]json.RawMessage
}

var knownUserFields = []string{"id", "username", "email", "first_name", "last_name", "is_staff", "date_joined"}

// Valid reports whether the user carries a non-blank username
func (u *User) Valid() bool {
	return u != nil && strings.TrimSpace(u.Username) != ""
}

// FullName returns "first last", or the username when both are empty
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" || u.LastName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return u.Username
}

// Clone returns a deep copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.ID = bytes.Clone(u.ID)
	if u.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = bytes.Clone(v)
		}
	}
	return &c
}

// MarshalJSON writes the back-end field names, merging Extra back in
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+len(knownUserFields))
	for k, v := range u.Extra {
		out[k] = v
	}
	if len(u.ID) > 0 {
		out["id"] = u.ID
	}
	out["username"] = u.Username
	if u.Email != "" {
		out["email"] = u.Email
	}
	if u.FirstName != "" {
		out["first_name"] = u.FirstName
	}
	if u.LastName != "" {
		out["last_name"] = u.LastName
	}
	if u.IsStaff {
		out["is_staff"] = true
	}
	if u.DateJoined != "" {
		out["date_joined"] = u.DateJoined
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra
func (u *User) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var known struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		IsStaff    bool   `json:"is_staff"`
		DateJoined string `json:"date_joined"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	*u = User{
		Username:   known.Username,
		Email:      known.Email,
		FirstName:  known.FirstName,
		LastName:   known.LastName,
		IsStaff:    known.IsStaff,
		DateJoined: known.DateJoined,
	}
	if id, ok := fields["id"]; ok && !bytes.Equal(bytes.TrimSpace(id), []byte("null")) {
		u.ID = bytes.Clone(id)
	}

	extra := maps.Clone(fields)
	for _, k := range knownUserFields {
		delete(extra, k)
	}
	if len(extra) > 0 {
		u.Extra = extra
	}
	return nil
}

// decodeUser parses a user object. A nil result means the payload
// is absent, null or malformed. Usernames are checked when the session
// enters PhaseAuthenticated.
func decodeUser(raw []byte) *User {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}
