package fingerprint

import (
	"encoding/json"
	"fmt"
)

// Canonicalize produces the canonical JSON form of a value: object keys
// sorted, no insignificant whitespace. Round-tripping through an untyped
// value lets the JSON encoder apply its sorted-key ordering regardless of
// struct field order, so two structurally equal values always serialize to
// identical bytes.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize marshal: %w", err)
	}
	var untyped interface{}
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return nil, fmt.Errorf("canonicalize round-trip: %w", err)
	}
	out, err := json.Marshal(untyped)
	if err != nil {
		return nil, fmt.Errorf("canonicalize re-marshal: %w", err)
	}
	return out, nil
}
