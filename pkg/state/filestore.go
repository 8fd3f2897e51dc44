package state

import (
	"encoding/json"
	"fmt"
	"os"
)

// Store persists sync progress so an interrupted run can resume.
type Store interface {
	Load() (*State, error)
	Save(s *State) error
}

// FileStore keeps state in a local JSON checkpoint file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the checkpoint file. A missing file means a fresh sync and
// returns an empty state, not an error.
func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read state file '%s': %w", f.Path, err)
	}
	return Parse(data)
}

func (f *FileStore) Save(s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file '%s': %w", f.Path, err)
	}
	return nil
}
