package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a row. The table assigns it on insert; the client never
// interprets it beyond equality and rendering into a filter.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unassigned.
func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts both numeric (int8 / serial) and string (uuid) keys.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integer ids as numbers so they round-trip
// with integer primary keys. Anything else, including "007" and "+5", is a
// string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Item is the domain model for a todo row.
type Item struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	IsCompleted bool   `json:"isCompleted"`
}

// Valid reports whether the row can be displayed. Missing, null and empty
// names all decode to "".
func (i Item) Valid() bool { return i.Name != "" }

// NewItem is the record sent on insert.
type NewItem struct {
	Name        string `json:"name"`
	IsCompleted bool   `json:"isCompleted"`
}

// Patch is a partial update. Nil fields are left out of the body.
type Patch struct {
	IsCompleted *bool `json:"isCompleted,omitempty"`
}

// CompletedPatch builds the patch that sets isCompleted to v.
func CompletedPatch(v bool) Patch { return Patch{IsCompleted: &v} }

// Apply returns it with the patch's set fields applied.
func (p Patch) Apply(it Item) Item {
	if p.IsCompleted != nil {
		it.IsCompleted = *p.IsCompleted
	}
	return it
}
