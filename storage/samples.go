package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"P3DrumMachine/core/utils"
	"P3DrumMachine/logger"

	"github.com/google/uuid"
)

// ImportAudioFile copies source into Samples/<sessionID>/ and returns the new
// path. name overrides the destination file name; empty means the source's
// base name. An existing file is never overwritten: on a name clash the copy
// is stored as "<uuid>_<name>" instead.
func (m *FileManager) ImportAudioFile(source string, sessionID uuid.UUID, name string) (string, error) {
	if name == "" {
		name = source
	}
	filename := utils.SanitizeFileName(name)
	if filename == "" {
		return "", opError("import", source, fmt.Errorf("invalid file name %q", name))
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", opError("stat", source, err)
	}
	if !info.Mode().IsRegular() {
		return "", opError("import", source, errors.New("not a regular file"))
	}
	if err := requireDir(m.samplesDir); err != nil {
		return "", err
	}
	if err := m.createSessionDirectories(sessionID); err != nil {
		return "", err
	}
	if err := m.ensureSpace(info.Size()); err != nil {
		return "", err
	}

	dir := m.sessionSamplesDir(sessionID)
	dst := filepath.Join(dir, filename)
	_, err = utils.CopyFileExclusive(source, dst)
	if errors.Is(err, fs.ErrExist) {
		dst = filepath.Join(dir, uuid.NewString()+"_"+filename)
		_, err = utils.CopyFileExclusive(source, dst)
	}
	if err != nil {
		return "", opError("copy", dst, err)
	}

	logger.Info("imported audio",
		logger.String("file", filepath.Base(dst)), logger.ID("sessionID", sessionID))
	return dst, nil
}

// ErrOutsideSession is returned for sample paths that do not belong to the
// session's samples directory.
var ErrOutsideSession = errors.New("path is outside the session samples directory")

// SessionSamplePath resolves path to a file directly or nested under
// Samples/<sessionID>/. A relative path is taken relative to that directory.
// Anything that escapes it, including the directory itself, is refused.
func (m *FileManager) SessionSamplePath(sessionID uuid.UUID, path string) (string, error) {
	dir, err := filepath.Abs(m.sessionSamplesDir(sessionID))
	if err != nil {
		return "", opError("resolve sample", path, err)
	}
	target := filepath.Clean(path)
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideSession, path)
	}
	return target, nil
}

// DeleteSessionSample removes a sample file belonging to sessionID. Paths
// outside Samples/<sessionID>/ are refused and nothing is removed.
func (m *FileManager) DeleteSessionSample(sessionID uuid.UUID, path string) error {
	target, err := m.SessionSamplePath(sessionID, path)
	if err != nil {
		return err
	}
	return m.DeleteAudioFile(target)
}

// DeleteAudioFile removes path if it exists.
func (m *FileManager) DeleteAudioFile(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return opError("stat", path, err)
	}
	if info.IsDir() {
		return opError("remove", path, errors.New("is a directory"))
	}
	if err := os.Remove(path); err != nil {
		return opError("remove", path, err)
	}
	logger.Info("deleted audio file", logger.String("file", filepath.Base(path)))
	return nil
}
