package consumo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StateStore persists the tracker State as a single JSON document. One
// process owns the file; durability only needs to be at-least-once per
// cycle, so write-temp-then-rename is enough.
type StateStore struct {
	path string
}

func NewStateStore(path string) StateStore {
	return StateStore{path: path}
}

// Load reads the persisted state. A missing file is an empty state, not
// an error.
func (s StateStore) Load() (State, error) {
	var state State
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("read state: %w", err)
	}
	err = json.Unmarshal(raw, &state)
	if err != nil {
		return State{}, fmt.Errorf("parse state: %w", err)
	}
	return state, nil
}

// Save atomically rewrites the state document.
func (s StateStore) Save(state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ute_state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	_, err = tmp.Write(raw)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
