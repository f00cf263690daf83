//go:build !sonic

package json

import "encoding/json"

// Implementation is a string representation of the JSON implementation in use
const Implementation = "encoding/json"

var (
	// Marshal is a wrapper around the selected JSON implementation
	Marshal = json.Marshal
	// MarshalIndent is a wrapper around the selected JSON implementation
	MarshalIndent = json.MarshalIndent
	// Unmarshal is a wrapper around the selected JSON implementation
	Unmarshal = json.Unmarshal
	// NewEncoder is a wrapper around the selected JSON implementation
	NewEncoder = json.NewEncoder
	// NewDecoder is a wrapper around the selected JSON implementation
	NewDecoder = json.NewDecoder
)

// RawMessage is a raw encoded JSON value
type RawMessage = json.RawMessage
