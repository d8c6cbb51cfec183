package types

import "encoding/json"

// ToolSchema describes a tool an agent exposes for tool-augmented generation.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}
