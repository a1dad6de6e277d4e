package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/personal-assistant/internal/model"
)

// collection is one kind's records persisted as a single JSON array file.
type collection[T any] struct {
	kind model.Kind
	path string
	id   func(T) string
}

func (c *collection[T]) exists() (bool, error) {
	_, err := os.Stat(c.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, &StorageError{Op: "stat", Kind: c.kind, Path: c.path, Err: err}
}

func (c *collection[T]) load() ([]T, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return nil, &StorageError{Op: "read", Kind: c.kind, Path: c.path, Err: err}
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, &StorageError{Op: "parse", Kind: c.kind, Path: c.path, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		id := c.id(it)
		if seen[id] {
			return nil, &StorageError{Op: "parse", Kind: c.kind, Path: c.path, Err: fmt.Errorf("%w: duplicate id %s", ErrCorrupt, id)}
		}
		seen[id] = true
	}
	return items, nil
}

func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Kind: c.kind, Path: c.path, Err: err}
	}
	if err := writeFileAtomic(c.path, append(b, '\n')); err != nil {
		return &StorageError{Op: "write", Kind: c.kind, Path: c.path, Err: err}
	}
	return nil
}

func (c *collection[T]) find(items []T, id string) int {
	for i, it := range items {
		if c.id(it) == id {
			return i
		}
	}
	return -1
}

// add appends item. Re-adding an identical record is a no-op so a batch can
// be applied twice; a different record under the same id is a conflict.
func (c *collection[T]) add(item T) (bool, error) {
	items, err := c.load()
	if err != nil {
		return false, err
	}
	if i := c.find(items, c.id(item)); i >= 0 {
		if sameRecord(items[i], item) {
			return false, nil
		}
		return false, fmt.Errorf("%s %s: %w", c.kind, c.id(item), ErrAlreadyExists)
	}
	return true, c.save(append(items, item))
}

// update replaces the record with item's id in place. It reports false when
// no such record exists; the file is left untouched in that case.
func (c *collection[T]) update(item T) (bool, error) {
	items, err := c.load()
	if err != nil {
		return false, err
	}
	i := c.find(items, c.id(item))
	if i < 0 {
		return false, nil
	}
	items[i] = item
	return true, c.save(items)
}

// remove deletes the record with id. It reports false when nothing matched.
func (c *collection[T]) remove(id string) (bool, error) {
	items, err := c.load()
	if err != nil {
		return false, err
	}
	i := c.find(items, id)
	if i < 0 {
		return false, nil
	}
	return true, c.save(append(items[:i], items[i+1:]...))
}

func sameRecord[T any](a, b T) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

// writeFileAtomic writes data to a temp file beside path and renames it into
// place, so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
