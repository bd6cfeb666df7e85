package gateway

import (
	"encoding/json"
	"errors"
)

// Kind tells how a successful response body was interpreted.
type Kind int

const (
	// KindEmpty is a 204 response; the body was not read.
	KindEmpty Kind = iota
	KindJSON
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

var ErrNotJSON = errors.New("response is not JSON")

// Result is a normalized successful response.
type Result struct {
	Status int
	Kind   Kind
	body   []byte
}

func (r *Result) IsEmpty() bool {
	return r == nil || r.Kind == KindEmpty
}

// Decode unmarshals a JSON result into v. Empty results leave v untouched.
func (r *Result) Decode(v any) error {
	if r.IsEmpty() {
		return nil
	}
	if r.Kind != KindJSON {
		return ErrNotJSON
	}
	return json.Unmarshal(r.body, v)
}

// Text returns the body as a string; for JSON results it is the raw JSON.
func (r *Result) Text() string {
	if r.IsEmpty() {
		return ""
	}
	return string(r.body)
}

// Raw returns the JSON body, or nil for non-JSON results.
func (r *Result) Raw() json.RawMessage {
	if r.IsEmpty() || r.Kind != KindJSON {
		return nil
	}
	return json.RawMessage(r.body)
}
