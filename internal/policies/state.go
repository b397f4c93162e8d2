package policies

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "ingest-state.json"

// State tracks which policy files are in the index and their content hashes.
type State struct {
	FileHashes  map[string]string `json:"file_hashes"`
	LastUpdated time.Time         `json:"last_updated"`
}

// LoadState reads the ingestion state kept next to the vector index in dir.
// A missing file yields an empty state.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{FileHashes: make(map[string]string)}, nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.FileHashes == nil {
		state.FileHashes = make(map[string]string)
	}
	return &state, nil
}

// Save writes the state into dir.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.LastUpdated = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}

// Changed reports whether relPath is new or its content hash differs.
func (s *State) Changed(relPath, contentHash string) bool {
	stored, ok := s.FileHashes[relPath]
	return !ok || stored != contentHash
}
