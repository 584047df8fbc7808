package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"P3DrumMachine/core/utils"
	"P3DrumMachine/logger"
	"P3DrumMachine/model"

	"github.com/google/uuid"
)

var (
	ErrNoActiveSession    = errors.New("no active session")
	ErrPadNotFound        = errors.New("pad not found")
	ErrCollectionNotFound = errors.New("sample collection not found")
)

// StepsPerBar is the length of the step sequencer.
const StepsPerBar = 16

// Store is the persistence the Manager needs. *storage.FileManager satisfies it.
type Store interface {
	SaveSession(ctx context.Context, s *model.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ListSessions(ctx context.Context) ([]model.SessionSummary, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ImportAudioFile(source string, sessionID uuid.UUID, name string) (string, error)
}

// Manager holds the one active session, the sample library and transient
// performance state. It is not safe for concurrent use; every mutation goes
// through a single owner.
//
// Failed operations never leave half-applied state behind.
type Manager struct {
	store Store

	current  *model.Session
	sessions []model.SessionSummary
	library  []model.SampleCollection

	surface          model.PerformanceSurface
	activeInstrument *uuid.UUID
	bpm              float64
	currentStep      int
	recording        bool
}

// NewManager creates a manager with the default sample library and loads
// the session listing. A listing failure is logged and leaves it empty.
func NewManager(ctx context.Context, store Store) *Manager {
	m := &Manager{
		store:   store,
		library: model.DefaultLibrary(),
		surface: model.SurfaceNone,
		bpm:     model.DefaultBPM,
	}
	if err := m.RefreshSessions(ctx); err != nil {
		logger.Warn("failed to load sessions", logger.ErrorField(err))
	}
	return m
}

// ========== 会话管理 ==========

// NewSession creates a fresh session and makes it current. Nothing is saved.
// An empty name means the default one.
func (m *Manager) NewSession(name string, rows, columns int) *model.Session {
	if name == "" {
		name = model.DefaultSessionName
	}
	s := model.NewSession(name, model.DefaultBPM, rows, columns)
	m.current = s
	m.bpm = s.BPM
	m.activeInstrument = nil
	logger.Info("created session", logger.String("name", name), logger.ID("sessionID", s.ID))
	return s.Clone()
}

// OpenSession loads id and makes it current. On failure the current session
// and transient state are left untouched.
func (m *Manager) OpenSession(ctx context.Context, id uuid.UUID) error {
	s, err := m.store.LoadSession(ctx, id)
	if err != nil {
		logger.Error("failed to open session", logger.ID("sessionID", id), logger.ErrorField(err))
		return fmt.Errorf("failed to open session: %w", err)
	}
	m.current = s
	m.bpm = s.BPM
	m.activeInstrument = cloneID(s.ActiveInstrumentPadID)
	logger.Info("opened session", logger.String("name", s.Name), logger.ID("sessionID", id))
	return nil
}

// SaveCurrentSession persists the active session and refreshes the listing.
func (m *Manager) SaveCurrentSession(ctx context.Context) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	if err := m.store.SaveSession(ctx, m.current); err != nil {
		logger.Error("failed to save session", logger.ID("sessionID", m.current.ID), logger.ErrorField(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := m.RefreshSessions(ctx); err != nil {
		logger.Warn("failed to refresh sessions after save", logger.ErrorField(err))
	}
	return nil
}

// CloseCurrentSession saves and then clears the active session and the
// performance state. If the save fails nothing is cleared. With no active
// session only the transient state is reset.
func (m *Manager) CloseCurrentSession(ctx context.Context) error {
	if m.current != nil {
		if err := m.SaveCurrentSession(ctx); err != nil {
			return err
		}
	}
	m.current = nil
	m.resetPerformanceState()
	return nil
}

// DeleteSession removes a stored session. Deleting the active session closes
// it without saving.
func (m *Manager) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := m.store.DeleteSession(ctx, id); err != nil {
		logger.Error("failed to delete session", logger.ID("sessionID", id), logger.ErrorField(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.sessions = slices.DeleteFunc(m.sessions, func(s model.SessionSummary) bool { return s.ID == id })
	if m.current != nil && m.current.ID == id {
		m.current = nil
		m.resetPerformanceState()
	}
	return nil
}

// RefreshSessions reloads the cached listing. On failure the previous listing is kept.
func (m *Manager) RefreshSessions(ctx context.Context) error {
	list, err := m.store.ListSessions(ctx)
	if err != nil {
		return err
	}
	m.sessions = list
	logger.Debug("loaded sessions", logger.Int("count", len(list)))
	return nil
}

func (m *Manager) resetPerformanceState() {
	m.surface = model.SurfaceNone
	m.activeInstrument = nil
}

// ========== 读取 ==========

// CurrentSession returns a copy of the active session, or nil.
func (m *Manager) CurrentSession() *model.Session {
	if m.current == nil {
		return nil
	}
	return m.current.Clone()
}

// HasActiveSession reports whether a session is open.
func (m *Manager) HasActiveSession() bool {
	return m.current != nil
}

// Sessions returns a copy of the cached listing, newest first.
func (m *Manager) Sessions() []model.SessionSummary {
	return slices.Clone(m.sessions)
}

// Library returns a deep copy of the sample library.
func (m *Manager) Library() []model.SampleCollection {
	out := make([]model.SampleCollection, len(m.library))
	for i, c := range m.library {
		out[i] = c.Clone()
	}
	return out
}

// Pad looks up a pad of the active session.
func (m *Manager) Pad(id uuid.UUID) (model.Pad, bool) {
	if m.current == nil {
		return model.Pad{}, false
	}
	return m.current.PadByID(id)
}

func (m *Manager) ActiveSurface() model.PerformanceSurface { return m.surface }

func (m *Manager) ActiveInstrument() *uuid.UUID { return cloneID(m.activeInstrument) }

func (m *Manager) CurrentStep() int { return m.currentStep }

func (m *Manager) IsRecording() bool { return m.recording }

// ========== 打击垫 ==========

// UpdatePad validates and applies a partial pad change.
func (m *Manager) UpdatePad(id uuid.UUID, upd model.PadUpdate) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	if err := upd.Validate(); err != nil {
		return err
	}
	if !m.current.UpdatePad(id, upd) {
		return fmt.Errorf("%w: %s", ErrPadNotFound, id)
	}
	return nil
}

// ReplacePad overwrites a whole pad, keeping its grid position.
func (m *Manager) ReplacePad(pad model.Pad) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	if !pad.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", model.ErrInvalidPadUpdate, pad.Mode)
	}
	if !m.current.ReplacePad(pad) {
		return fmt.Errorf("%w: %s", ErrPadNotFound, pad.ID)
	}
	return nil
}

func (m *Manager) AssignSample(sample model.Sample, padID uuid.UUID) error {
	return m.UpdatePad(padID, model.PadUpdate{Sample: &sample})
}

func (m *Manager) ClearSample(padID uuid.UUID) error {
	return m.UpdatePad(padID, model.PadUpdate{ClearSample: true})
}

func (m *Manager) SetPadMode(mode model.PadMode, padID uuid.UUID) error {
	return m.UpdatePad(padID, model.PadUpdate{Mode: &mode})
}

// SetActiveInstrument designates the pad played by the Keys and 5ths
// surfaces. nil clears it.
func (m *Manager) SetActiveInstrument(padID *uuid.UUID) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	if !m.current.SetActiveInstrument(padID) {
		return fmt.Errorf("%w: %s", ErrPadNotFound, *padID)
	}
	m.activeInstrument = cloneID(padID)
	return nil
}

// ResizeGrid rebuilds the grid. Pads outside the new bounds are discarded
// along with their sample assignments.
func (m *Manager) ResizeGrid(rows, columns int) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	m.current.Resize(rows, columns)
	m.activeInstrument = cloneID(m.current.ActiveInstrumentPadID)
	return nil
}

// ========== BPM ==========

// BPM is the tempo, kept even without an active session.
func (m *Manager) BPM() float64 { return m.bpm }

// SetBPM clamps to [20, 300] and pushes the tempo into the active session.
func (m *Manager) SetBPM(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}
	m.bpm = min(max(bpm, model.MinBPM), model.MaxBPM)
	if m.current != nil {
		m.current.SetBPM(m.bpm)
	}
}

func (m *Manager) AdjustBPM(delta float64) {
	m.SetBPM(m.bpm + delta)
}

// SixteenthNoteDuration is the length of one sequencer step at the current tempo.
func (m *Manager) SixteenthNoteDuration() time.Duration {
	return time.Duration(60.0 / (m.bpm * 4.0) * float64(time.Second))
}

// AdvanceStep moves the sequencer to the next of 16 steps and returns it.
func (m *Manager) AdvanceStep() int {
	m.currentStep = (m.currentStep + 1) % StepsPerBar
	return m.currentStep
}

// ResetStep returns the sequencer to step 0.
func (m *Manager) ResetStep() {
	m.currentStep = 0
}

// ========== 视觉设置 ==========

func (m *Manager) UpdateVisualSettings(v model.VisualSettings) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	if !v.StylePreset.Valid() {
		return fmt.Errorf("unknown style preset %q", v.StylePreset)
	}
	if _, err := model.NormalizeHexColor(v.TintColorHex); err != nil {
		return err
	}
	m.current.SetVisualSettings(v)
	return nil
}

func (m *Manager) SetTintColor(hex string) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	v := m.current.VisualSettings
	if err := v.SetTintColorHex(hex); err != nil {
		return err
	}
	m.current.SetVisualSettings(v)
	return nil
}

func (m *Manager) AdjustBrightness(delta float64) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	v := m.current.VisualSettings
	v.AdjustBrightness(delta)
	m.current.SetVisualSettings(v)
	return nil
}

func (m *Manager) SetStylePreset(p model.StylePreset) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	if !p.Valid() {
		return fmt.Errorf("unknown style preset %q", p)
	}
	v := m.current.VisualSettings
	v.StylePreset = p
	m.current.SetVisualSettings(v)
	return nil
}

// ========== 演奏面板 ==========

func (m *Manager) ShowKeys() { m.surface = model.SurfaceKeys }

func (m *Manager) ShowFifths() { m.surface = model.SurfaceFifths }

func (m *Manager) HidePerformanceSurface() { m.surface = model.SurfaceNone }

func (m *Manager) ToggleKeys() {
	if m.surface == model.SurfaceKeys {
		m.surface = model.SurfaceNone
	} else {
		m.surface = model.SurfaceKeys
	}
}

func (m *Manager) ToggleFifths() {
	if m.surface == model.SurfaceFifths {
		m.surface = model.SurfaceNone
	} else {
		m.surface = model.SurfaceFifths
	}
}

// ========== 录音 ==========

// StartRecording only flips the flag; capture is done elsewhere.
func (m *Manager) StartRecording() {
	m.recording = true
	logger.Info("recording started")
}

func (m *Manager) StopRecording() {
	m.recording = false
	logger.Info("recording stopped")
}

// AddRecording appends a finished take to the active session.
func (m *Manager) AddRecording(r model.Recording) error {
	if m.current == nil {
		return ErrNoActiveSession
	}
	m.current.AddRecording(r)
	return nil
}

// ========== 采样库 ==========

func (m *Manager) collectionIndex(id uuid.UUID) int {
	return slices.IndexFunc(m.library, func(c model.SampleCollection) bool { return c.ID == id })
}

// AddSample appends sample to a collection. Returns false if the sample is
// already in it.
func (m *Manager) AddSample(sample model.Sample, collectionID uuid.UUID) (bool, error) {
	i := m.collectionIndex(collectionID)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}
	return m.library[i].Add(sample), nil
}

func (m *Manager) RemoveSample(sampleID, collectionID uuid.UUID) (bool, error) {
	i := m.collectionIndex(collectionID)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}
	return m.library[i].Remove(sampleID), nil
}

// CreateCollection appends an empty user collection.
func (m *Manager) CreateCollection(name string) model.SampleCollection {
	c := model.NewSampleCollection(name, true)
	m.library = append(m.library, c)
	return c.Clone()
}

// ImportAudioFile copies source into the active session's samples and adds
// it to "User Imports", creating that collection on first use. The sample is
// named after the file without its extension.
func (m *Manager) ImportAudioFile(source string) (model.Sample, error) {
	if m.current == nil {
		return model.Sample{}, ErrNoActiveSession
	}
	dst, err := m.store.ImportAudioFile(source, m.current.ID, "")
	if err != nil {
		logger.Error("failed to import audio", logger.String("source", source), logger.ErrorField(err))
		return model.Sample{}, fmt.Errorf("failed to import audio: %w", err)
	}

	sample := model.NewSample(utils.Stem(source), dst)
	i := slices.IndexFunc(m.library, func(c model.SampleCollection) bool {
		return c.Name == model.CollectionUserImports
	})
	if i < 0 {
		m.library = append(m.library, model.NewSampleCollection(model.CollectionUserImports, true))
		i = len(m.library) - 1
	}
	m.library[i].Add(sample)
	logger.Info("imported audio", logger.String("name", sample.Name), logger.String("path", dst))
	return sample, nil
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
