package store

import (
	"errors"
	"fmt"

	"github.com/rcliao/personal-assistant/internal/model"
)

var (
	// ErrNotFound is returned by strict stores when an id is absent.
	ErrNotFound = errors.New("store: record not found")
	// ErrAlreadyExists is returned when adding an id that holds a different record.
	ErrAlreadyExists = errors.New("store: record already exists")
	// ErrCorrupt marks a collection file that cannot be parsed or breaks id uniqueness.
	ErrCorrupt = errors.New("store: corrupt collection")
)

// StorageError describes a failure reading or writing a collection file.
type StorageError struct {
	Op   string
	Kind model.Kind
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s collection %s: %v", e.Op, e.Kind, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
