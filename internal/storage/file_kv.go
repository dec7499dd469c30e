package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// errCorruptFile marks a store file that exists but is not a JSON object.
var errCorruptFile = errors.New("corrupt store file")

// fileKV keeps every slot in one JSON object on disk, keyed by slot name.
// Writes go to a temp file that is renamed over the original.
type fileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV returns a store backed by the JSON file at path. Parent directories
// are created on first write.
func NewFileKV(path string) IKeyValueStore {
	return &fileKV{path: path}
}

func (f *fileKV) readAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	slots := map[string]json.RawMessage{}
	if len(data) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", errCorruptFile, f.path, err)
	}
	return slots, nil
}

// Get returns the slot's value. Values are stored as JSON strings so that
// arbitrary bytes, including malformed JSON, round-trip unchanged.
func (f *fileKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slots, err := f.readAll()
	if err != nil {
		return nil, err
	}
	raw, ok := slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("failed to decode slot %q: %w", key, err)
	}
	return []byte(value), nil
}

func (f *fileKV) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	slots, err := f.readAll()
	if errors.Is(err, errCorruptFile) {
		// The unreadable file is kept next to the store and writing starts over.
		if renameErr := os.Rename(f.path, f.path+".corrupt"); renameErr != nil {
			return fmt.Errorf("failed to move aside %s: %w", f.path, renameErr)
		}
		slots, err = map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(string(value))
	if err != nil {
		return fmt.Errorf("failed to encode slot %q: %w", key, err)
	}
	slots[key] = encoded

	out, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
