package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"P3DrumMachine/logger"

	"github.com/google/uuid"
)

// AppDirName is the directory created under the storage root.
const AppDirName = "P3DrumMachine"

const (
	sessionsDirName   = "Sessions"
	samplesDirName    = "Samples"
	recordingsDirName = "Recordings"
	sessionFileExt    = ".json"
)

// FileManager owns the on-disk layout:
//
//	<root>/P3DrumMachine/Sessions/<session-id>.json
//	<root>/P3DrumMachine/Samples/<session-id>/<sample-filename>
//	<root>/P3DrumMachine/Recordings/<session-id>/<recording-filename>
//
// It assumes a single writer and does no locking.
type FileManager struct {
	baseDir       string
	sessionsDir   string
	samplesDir    string
	recordingsDir string

	index      SummaryIndex
	indexStale bool

	diskReserve int64
	freeSpace   func(path string) (int64, bool)
}

// Option configures a FileManager.
type Option func(*FileManager)

// WithDiskReserve keeps n bytes free on top of what each write needs.
func WithDiskReserve(n int64) Option {
	return func(m *FileManager) { m.diskReserve = max(n, 0) }
}

// DefaultRoot is the user's config directory, or the working directory if
// that cannot be determined.
func DefaultRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		logger.Warn("user config dir unavailable, using working directory", logger.ErrorField(err))
		return "."
	}
	return dir
}

// BaseDir is where a FileManager rooted at root keeps its files.
func BaseDir(root string) string {
	return filepath.Join(root, AppDirName)
}

// NewFileManager creates the directory layout under root. A failure is logged
// and construction still succeeds; later operations then report
// ErrDirectoryNotFound. index may be nil to disable the summary index.
func NewFileManager(root string, index SummaryIndex, opts ...Option) *FileManager {
	base := BaseDir(root)
	m := &FileManager{
		baseDir:       base,
		sessionsDir:   filepath.Join(base, sessionsDirName),
		samplesDir:    filepath.Join(base, samplesDirName),
		recordingsDir: filepath.Join(base, recordingsDirName),
		index:         index,
		freeSpace:     diskFree,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.createDirectoryStructure(); err != nil {
		logger.Warn("failed to create directory structure",
			logger.String("base", base), logger.ErrorField(err))
	}
	return m
}

func (m *FileManager) createDirectoryStructure() error {
	for _, dir := range []string{m.baseDir, m.sessionsDir, m.samplesDir, m.recordingsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// BaseDir returns <root>/P3DrumMachine.
func (m *FileManager) BaseDir() string { return m.baseDir }

// SessionsDir returns the directory holding session files.
func (m *FileManager) SessionsDir() string { return m.sessionsDir }

// HasIndex reports whether a summary index is configured.
func (m *FileManager) HasIndex() bool { return m.index != nil }

// requireDir checks that dir exists and is a directory.
func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryNotFound, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}
	return nil
}

func (m *FileManager) sessionFile(id uuid.UUID) string {
	return filepath.Join(m.sessionsDir, id.String()+sessionFileExt)
}

func (m *FileManager) sessionSamplesDir(id uuid.UUID) string {
	return filepath.Join(m.samplesDir, id.String())
}

func (m *FileManager) sessionRecordingsDir(id uuid.UUID) string {
	return filepath.Join(m.recordingsDir, id.String())
}

// createSessionDirectories makes the per-session sample and recording dirs.
func (m *FileManager) createSessionDirectories(id uuid.UUID) error {
	for _, dir := range []string{m.sessionSamplesDir(id), m.sessionRecordingsDir(id)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return opError("mkdir", dir, err)
		}
	}
	return nil
}

// SessionExists never fails; any stat error counts as absent.
func (m *FileManager) SessionExists(id uuid.UUID) bool {
	info, err := os.Stat(m.sessionFile(id))
	return err == nil && info.Mode().IsRegular()
}

// FileSize returns the size of path, or false if it cannot be read.
func (m *FileManager) FileSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}

// AvailableDiskSpace reports free bytes on the volume holding the base dir,
// or false where that is unknown.
func (m *FileManager) AvailableDiskSpace() (int64, bool) {
	return m.freeSpace(m.baseDir)
}

// ensureSpace fails with ErrInsufficientDiskSpace when need plus the reserve
// does not fit. Unknown free space is not an error.
func (m *FileManager) ensureSpace(need int64) error {
	free, ok := m.AvailableDiskSpace()
	if !ok {
		return nil
	}
	if need+m.diskReserve > free {
		return fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientDiskSpace, need+m.diskReserve, free)
	}
	return nil
}
