package fund

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"FlipSentinel/internal/model"
)

// LoadState reads the bankroll state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.BankrollState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.BankrollState{}, nil
		}
		return nil, err
	}
	var state model.BankrollState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the bankroll state to a JSON file.
func SaveState(filePath string, state *model.BankrollState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
