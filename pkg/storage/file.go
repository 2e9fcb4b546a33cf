package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// File persists the state blob as a single JSON file on disk.
type File struct {
	logger logrus.FieldLogger
	path   string
}

func NewFile(path string, logger logrus.FieldLogger) *File {
	return &File{
		logger: logger.WithField("module", "storage"),
		path:   path,
	}
}

func (f *File) Load() (State, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, ErrNoState
		}
		return State{}, err
	}

	var blob struct {
		Key   string `json:"key"`
		State State  `json:"state"`
	}
	if err := json.Unmarshal(raw, &blob); err != nil {
		// corrupt blob is swallowed, caller resets to default state
		f.logger.WithError(err).Errorf("corrupt state file %s, will reset", f.path)
		return State{}, ErrNoState
	}

	if blob.Key != StateKey {
		f.logger.Errorf("stale state key %q in %s, will reset", blob.Key, f.path)
		return State{}, ErrNoState
	}

	return blob.State, nil
}

func (f *File) Save(s State) error {
	blob := struct {
		Key   string `json:"key"`
		State State  `json:"state"`
	}{
		Key:   StateKey,
		State: s,
	}

	raw, err := json.Marshal(blob)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	// write to a sibling temp file and rename so readers never
	// observe a partial blob
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, f.path)
}
