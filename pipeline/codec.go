package pipeline

import (
	"encoding/json"
	"fmt"
)

func encodeState(state *State) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("nil state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &state, nil
}
