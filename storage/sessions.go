package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"P3DrumMachine/core/utils"
	"P3DrumMachine/logger"
	"P3DrumMachine/model"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// SaveSession validates s and atomically replaces Sessions/<id>.json. A crash
// mid-write leaves either the old file or the new one, never a partial file.
// Summary index failures are logged and never fail the save.
func (m *FileManager) SaveSession(ctx context.Context, s *model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := requireDir(m.sessionsDir); err != nil {
		return err
	}
	if err := m.createSessionDirectories(s.ID); err != nil {
		return err
	}

	data, err := EncodeSession(s)
	if err != nil {
		return opError("encode", m.sessionFile(s.ID), err)
	}
	if err := m.ensureSpace(int64(len(data))); err != nil {
		return err
	}

	path := m.sessionFile(s.ID)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return opError("write", path, err)
	}
	logger.Info("saved session",
		logger.String("name", s.Name), logger.ID("sessionID", s.ID))

	if m.index != nil {
		summary := s.Summary()
		if st, ok := statSessionFile(path); ok {
			summary.FileSize, summary.FileModTime = st.size, st.modTime
		}
		if err := m.index.Upsert(ctx, summary); err != nil {
			m.markIndexStale("upsert", err)
		}
	}
	return nil
}

// LoadSession reads and validates Sessions/<id>.json.
func (m *FileManager) LoadSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := m.sessionFile(id)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &SessionNotFoundError{ID: id}
	}
	if err != nil {
		return nil, opError("read", path, err)
	}

	s, err := DecodeSession(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if s.ID != id {
		return nil, invalidFile(path, errors.New("id does not match file name"))
	}
	logger.Debug("loaded session", logger.String("name", s.Name), logger.ID("sessionID", id))
	return s, nil
}

// ListSessions returns summaries sorted by ModifiedAt, newest first. The
// summary index is served directly only when it holds exactly the files on
// disk and every row's size and mtime match its file. Otherwise every file is
// decoded, unreadable ones are skipped and logged, and the index is rebuilt.
// Writes made without the index, by this or another process, therefore
// never surface stale or corrupt entries.
func (m *FileManager) ListSessions(ctx context.Context) ([]model.SessionSummary, error) {
	ids, err := m.sessionIDsOnDisk()
	if err != nil {
		return nil, err
	}

	if m.index != nil && !m.indexStale {
		summaries, err := m.index.List(ctx)
		switch {
		case err != nil:
			logger.Warn("summary index unavailable, scanning sessions", logger.ErrorField(err))
		case m.indexMatchesDisk(summaries, ids):
			sortSummaries(summaries)
			return summaries, nil
		default:
			logger.Info("summary index out of date, rebuilding",
				logger.Int("indexed", len(summaries)), logger.Int("onDisk", len(ids)))
		}
	}

	summaries, err := m.scanSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	if m.index != nil {
		if err := m.index.Replace(ctx, summaries); err != nil {
			m.markIndexStale("replace", err)
		} else {
			m.indexStale = false
		}
	}
	return summaries, nil
}

// RebuildIndex forces a full scan and replaces the index content with it.
func (m *FileManager) RebuildIndex(ctx context.Context) (int, error) {
	if m.index == nil {
		return 0, errors.New("no summary index configured")
	}
	ids, err := m.sessionIDsOnDisk()
	if err != nil {
		return 0, err
	}
	summaries, err := m.scanSummaries(ctx, ids)
	if err != nil {
		return 0, err
	}
	if err := m.index.Replace(ctx, summaries); err != nil {
		m.indexStale = true
		return 0, err
	}
	m.indexStale = false
	return len(summaries), nil
}

func (m *FileManager) scanSummaries(ctx context.Context, ids []uuid.UUID) ([]model.SessionSummary, error) {
	summaries := make([]model.SessionSummary, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// stat before reading: a write racing the scan leaves an older
		// stamp behind and the next listing rescans
		st, _ := statSessionFile(m.sessionFile(id))
		s, err := m.LoadSession(ctx, id)
		if err != nil {
			logger.Warn("skipping unreadable session",
				logger.ID("sessionID", id), logger.ErrorField(err))
			continue
		}
		summary := s.Summary()
		summary.FileSize, summary.FileModTime = st.size, st.modTime
		summaries = append(summaries, summary)
	}
	sortSummaries(summaries)
	return summaries, nil
}

// sessionIDsOnDisk lists ids of visible *.json files in Sessions/. Names that
// are not session ids are ignored.
func (m *FileManager) sessionIDsOnDisk() ([]uuid.UUID, error) {
	if err := requireDir(m.sessionsDir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(m.sessionsDir)
	if err != nil {
		return nil, opError("readdir", m.sessionsDir, err)
	}
	var ids []uuid.UUID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, sessionFileExt) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, sessionFileExt))
		if err != nil {
			logger.Debug("ignoring non-session file", logger.String("file", name))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteSession removes the session file and its sample and recording
// directories. Items that do not exist are skipped.
func (m *FileManager) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, path := range []string{m.sessionFile(id), m.sessionSamplesDir(id), m.sessionRecordingsDir(id)} {
		if err := utils.RemoveIfExists(path); err != nil {
			return opError("remove", path, err)
		}
	}
	logger.Info("deleted session", logger.ID("sessionID", id))

	if m.index != nil {
		if err := m.index.Delete(ctx, id); err != nil {
			m.markIndexStale("delete", err)
		}
	}
	return nil
}

func (m *FileManager) markIndexStale(op string, err error) {
	m.indexStale = true
	logger.Warn("summary index update failed, falling back to full scans",
		logger.String("op", op), logger.ErrorField(err))
}

type fileStamp struct {
	size    int64
	modTime int64
}

func statSessionFile(path string) (fileStamp, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fileStamp{}, false
	}
	return fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}, true
}

// indexMatchesDisk reports whether the index rows describe exactly the
// session files on disk as they are now. Rows without a stamp never match.
func (m *FileManager) indexMatchesDisk(summaries []model.SessionSummary, ids []uuid.UUID) bool {
	if !sameIDs(summaries, ids) {
		return false
	}
	for _, s := range summaries {
		st, ok := statSessionFile(m.sessionFile(s.ID))
		if !ok || s.FileModTime == 0 || st.size != s.FileSize || st.modTime != s.FileModTime {
			logger.Debug("summary index row out of date", logger.ID("sessionID", s.ID))
			return false
		}
	}
	return true
}

func sameIDs(summaries []model.SessionSummary, ids []uuid.UUID) bool {
	if len(summaries) != len(ids) {
		return false
	}
	onDisk := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		onDisk[id] = struct{}{}
	}
	for _, s := range summaries {
		if _, ok := onDisk[s.ID]; !ok {
			return false
		}
		delete(onDisk, s.ID)
	}
	return len(onDisk) == 0
}

func sortSummaries(s []model.SessionSummary) {
	slices.SortStableFunc(s, func(a, b model.SessionSummary) int {
		return b.ModifiedAt.Compare(a.ModifiedAt)
	})
}
