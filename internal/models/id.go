package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ID is a backend identifier in its string form. The backend sends ids as
// strings, numbers or populated objects depending on the endpoint.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number, null, or an object
// carrying an `_id` or `id` field.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	case '{':
		var ref struct {
			MongoID json.RawMessage `json:"_id"`
			ID      json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		raw := ref.MongoID
		if len(raw) == 0 {
			raw = ref.ID
		}
		if len(raw) == 0 {
			*id = ""
			return nil
		}
		return id.UnmarshalJSON(raw)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("decode id %s: %w", data, err)
		}
		*id = ID(n.String())
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool {
	return id == ""
}

// IsObjectID reports whether the id has the backend's 24 hex character shape.
func (id ID) IsObjectID() bool {
	return objectIDPattern.MatchString(string(id))
}

// SameID compares two ids by their string form. An absent id never matches.
func SameID(a, b ID) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a == b
}
