package storage

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"P3DrumMachine/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// SessionEvent reports that a session file was written or removed.
type SessionEvent struct {
	ID      uuid.UUID
	Removed bool
}

const watchDebounce = 150 * time.Millisecond

// WatchSessions watches Sessions/ and emits one event per session after its
// file has been quiet for a short while, so an atomic save shows up once.
// The channel is closed when ctx is done or the watcher fails.
func (m *FileManager) WatchSessions(ctx context.Context) (<-chan SessionEvent, error) {
	if err := requireDir(m.sessionsDir); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, opError("watch", m.sessionsDir, err)
	}
	if err := w.Add(m.sessionsDir); err != nil {
		w.Close()
		return nil, opError("watch", m.sessionsDir, err)
	}

	out := make(chan SessionEvent)
	go m.watchLoop(ctx, w, out, watchDebounce)
	return out, nil
}

func (m *FileManager) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- SessionEvent, debounce time.Duration) {
	defer close(out)
	defer w.Close()

	pending := make(map[uuid.UUID]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			id, ok := sessionIDFromPath(event.Name)
			if !ok {
				continue
			}
			pending[id] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("sessions watcher error", logger.ErrorField(err))
		case <-timer.C:
			for id := range pending {
				evt := SessionEvent{ID: id, Removed: !m.SessionExists(id)}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
			clear(pending)
		}
	}
}

// sessionIDFromPath accepts only "<uuid>.json"; atomic-write temp files and
// anything else in the directory are ignored.
func sessionIDFromPath(path string) (uuid.UUID, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, sessionFileExt) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSuffix(name, sessionFileExt))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
