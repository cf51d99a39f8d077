// Package model defines beacon's persisted entity types (spec §3).
package model

import (
	"encoding/json"
	"fmt"
)

// Tagged is the centralized encoding for every tagged union ("sum type") in
// the data model. Spec design note: "All tagged unions in persisted JSON use
// the pair {beetle:kind, beetle:content} for compatibility. An implementation
// should centralize this discriminator to one encoding helper." Every sum
// type in this package marshals through MarshalTagged/Decode instead of
// hand-rolling its own discriminator, so the pair only needs naming once.
type Tagged struct {
	Kind    string          `json:"beetle:kind"`
	Content json.RawMessage `json:"beetle:content,omitempty"`
}

// MarshalTagged encodes a kind tag plus an optional content payload into the
// shared discriminator shape.
func MarshalTagged(kind string, content any) (Tagged, error) {
	if content == nil {
		return Tagged{Kind: kind}, nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return Tagged{}, fmt.Errorf("model: marshaling tagged content for kind %q: %w", kind, err)
	}
	return Tagged{Kind: kind, Content: raw}, nil
}

// Decode unmarshals the tagged content into dest. Callers switch on Kind
// first, then call Decode with a pointer to the matching content type.
func (t Tagged) Decode(dest any) error {
	if len(t.Content) == 0 {
		return fmt.Errorf("model: tagged value %q has no content to decode", t.Kind)
	}
	return json.Unmarshal(t.Content, dest)
}

// Is reports whether the tagged value carries the given kind.
func (t Tagged) Is(kind string) bool { return t.Kind == kind }
