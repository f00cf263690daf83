//go:build sonic

package json

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Implementation is a string representation of the JSON implementation in use
const Implementation = "bytedance/sonic"

var (
	// Marshal is a wrapper around the selected JSON implementation
	Marshal = sonic.ConfigStd.Marshal
	// MarshalIndent is a wrapper around the selected JSON implementation
	MarshalIndent = sonic.ConfigStd.MarshalIndent
	// Unmarshal is a wrapper around the selected JSON implementation
	Unmarshal = sonic.ConfigStd.Unmarshal
	// NewEncoder is a wrapper around the selected JSON implementation
	NewEncoder = sonic.ConfigStd.NewEncoder
	// NewDecoder is a wrapper around the selected JSON implementation
	NewDecoder = sonic.ConfigStd.NewDecoder
)

// RawMessage is a raw encoded JSON value
type RawMessage = json.RawMessage
