package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"P3DrumMachine/core/utils"

	"github.com/google/uuid"
)

// RecordingFile is one entry of a session's recordings directory.
type RecordingFile struct {
	Path string
	Size int64
	// CreatedAt is zero when the creation time could not be read.
	CreatedAt time.Time
}

// RecordingFileURL is where a recording with filename belongs. It does not
// touch the filesystem.
func (m *FileManager) RecordingFileURL(sessionID uuid.UUID, filename string) string {
	return filepath.Join(m.sessionRecordingsDir(sessionID), utils.SanitizeFileName(filename))
}

// ListRecordings returns the visible files in Recordings/<sessionID>/,
// newest first. Files whose creation time is unknown come last, in name order.
func (m *FileManager) ListRecordings(sessionID uuid.UUID) ([]RecordingFile, error) {
	dir := m.sessionRecordingsDir(sessionID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []RecordingFile{}, nil
	}
	if err != nil {
		return nil, opError("readdir", dir, err)
	}

	files := make([]RecordingFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		f := RecordingFile{Path: path}
		if created, ok := creationTime(path); ok {
			f.CreatedAt = created
		}
		if size, ok := m.FileSize(path); ok {
			f.Size = size
		}
		files = append(files, f)
	}
	sortRecordings(files)
	return files, nil
}

func sortRecordings(files []RecordingFile) {
	slices.SortStableFunc(files, func(a, b RecordingFile) int {
		switch {
		case a.CreatedAt.IsZero() && b.CreatedAt.IsZero():
			return strings.Compare(a.Path, b.Path)
		case a.CreatedAt.IsZero():
			return 1
		case b.CreatedAt.IsZero():
			return -1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
