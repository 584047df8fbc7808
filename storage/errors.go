package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrDirectoryNotFound     = errors.New("could not locate application directory")
	ErrSessionNotFound       = errors.New("session not found")
	ErrInvalidSessionFile    = errors.New("session file is invalid or corrupted")
	ErrInsufficientDiskSpace = errors.New("insufficient disk space")
	ErrFileOperationFailed   = errors.New("file operation failed")
)

// SessionNotFoundError carries the id that was looked up. It matches ErrSessionNotFound.
type SessionNotFoundError struct {
	ID uuid.UUID
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}

// FileOperationError is a failed filesystem call. It matches
// ErrFileOperationFailed and unwraps to the underlying error.
type FileOperationError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("file operation failed: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileOperationError) Unwrap() error { return e.Err }

func (e *FileOperationError) Is(target error) bool {
	return target == ErrFileOperationFailed
}

func opError(op, path string, err error) error {
	return &FileOperationError{Op: op, Path: path, Err: err}
}

func invalidFile(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidSessionFile, path, err)
}
