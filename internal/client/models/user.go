// Package models defines the payloads exchanged with the metadata service
// and the pinning service.
package models

import "encoding/json"

// User is the current-user payload. Fields the client does not model are
// kept in Extra and written back on encode.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	Extra map[string]json.RawMessage `json:"-"`
}

var userFields = []string{"id", "username", "email"}

func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range userFields {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}
	*u = User(p)
	u.Extra = raw
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+len(userFields))
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["username"] = u.Username
	out["email"] = u.Email
	return json.Marshal(out)
}

// LoginResponse is returned by /login and, when the account is verified in
// the same step, by /verify.
type LoginResponse struct {
	Token   string `json:"token"`
	UserID  ID     `json:"userId"`
	Message string `json:"message,omitempty"`
}

// SignupResponse carries the id the OTP verification step expects.
type SignupResponse struct {
	ID      ID     `json:"id"`
	Message string `json:"message,omitempty"`
}
