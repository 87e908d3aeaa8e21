// internal/models/id.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque remote identifier. Both services use numeric and string ids
// interchangeably, so either form decodes into the same text.
type ID string

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}
