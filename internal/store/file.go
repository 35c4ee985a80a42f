package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"chronos/internal/model"
)

// FileStore keeps the event list as a JSON array in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, errors.New("store: file path is empty")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Event{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []model.Event{}, nil
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPersistenceCorrupt, s.path, err)
	}
	if err := validate(events); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPersistenceCorrupt, s.path, err)
	}
	return events, nil
}

// Save writes the list atomically: temp file in the same directory, fsync,
// chmod 0600, rename over the target.
func (s *FileStore) Save(ctx context.Context, events []model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return errors.New("store: file path is empty")
	}
	if events == nil {
		events = []model.Event{}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chronos-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// validate rejects decoded records that could not have been written by
// this program.
func validate(events []model.Event) error {
	seen := make(map[string]struct{}, len(events))
	for i, ev := range events {
		if ev.ID == "" {
			return fmt.Errorf("event %d has no id", i)
		}
		if _, dup := seen[ev.ID]; dup {
			return fmt.Errorf("duplicate event id %q", ev.ID)
		}
		seen[ev.ID] = struct{}{}
	}
	return nil
}
