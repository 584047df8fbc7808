package session

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"P3DrumMachine/model"
	"P3DrumMachine/storage"

	"github.com/google/uuid"
)

// fakeStore keeps sessions in memory and can be told to fail.
type fakeStore struct {
	saved     map[uuid.UUID]*model.Session
	saveErr   error
	loadErr   error
	deleteErr error
	saves     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[uuid.UUID]*model.Session)}
}

func (f *fakeStore) SaveSession(_ context.Context, s *model.Session) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[s.ID] = s.Clone()
	return nil
}

func (f *fakeStore) LoadSession(_ context.Context, id uuid.UUID) (*model.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	s, ok := f.saved[id]
	if !ok {
		return nil, &storage.SessionNotFoundError{ID: id}
	}
	return s.Clone(), nil
}

func (f *fakeStore) ListSessions(context.Context) ([]model.SessionSummary, error) {
	out := make([]model.SessionSummary, 0, len(f.saved))
	for _, s := range f.saved {
		out = append(out, s.Summary())
	}
	return out, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.saved, id)
	return nil
}

func (f *fakeStore) ImportAudioFile(source string, sessionID uuid.UUID, name string) (string, error) {
	return filepath.Join("/samples", sessionID.String(), filepath.Base(source)), nil
}

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	if m.HasActiveSession() || m.BPM() != 102 || m.ActiveSurface() != model.SurfaceNone {
		t.Fatal("unexpected initial state")
	}
	if len(m.Library()) != 4 {
		t.Fatalf("library = %d collections", len(m.Library()))
	}
	if err := m.SaveCurrentSession(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("save without session: %v", err)
	}
}

func TestNoActiveSessionErrors(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	id := uuid.New()
	checks := map[string]error{
		"update":     m.UpdatePad(id, model.PadUpdate{}),
		"replace":    m.ReplacePad(model.NewPad(0, 0)),
		"resize":     m.ResizeGrid(2, 2),
		"instrument": m.SetActiveInstrument(&id),
		"tint":       m.SetTintColor("#fff"),
		"brightness": m.AdjustBrightness(0.1),
		"preset":     m.SetStylePreset(model.StyleNeon),
		"recording":  m.AddRecording(model.NewRecording("x", "/x", 1)),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoActiveSession) {
			t.Errorf("%s: got %v", name, err)
		}
	}
	if _, err := m.ImportAudioFile("/tmp/kick.wav"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("import: %v", err)
	}
	m.SetBPM(140)
	if m.BPM() != 140 {
		t.Errorf("bpm without session = %v", m.BPM())
	}
}

func TestOpenFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(ctx, store)
	m.NewSession("current", 2, 2)
	m.SetBPM(90)
	m.ShowKeys()
	before := m.CurrentSession()

	missing := uuid.New()
	err := m.OpenSession(ctx, missing)
	var nf *storage.SessionNotFoundError
	if !errors.As(err, &nf) || nf.ID != missing {
		t.Fatalf("got %v", err)
	}

	store.loadErr = storage.ErrInvalidSessionFile
	if err := m.OpenSession(ctx, before.ID); !errors.Is(err, storage.ErrInvalidSessionFile) {
		t.Fatalf("got %v", err)
	}

	after := m.CurrentSession()
	if after == nil || after.ID != before.ID || m.BPM() != 90 || m.ActiveSurface() != model.SurfaceKeys {
		t.Fatal("state changed by failed open")
	}
}

func TestOpenSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	s := model.NewSession("stored", 128, 1, 2)
	id := s.Pads[1].ID
	s.SetActiveInstrument(&id)
	store.saved[s.ID] = s

	m := NewManager(ctx, store)
	if len(m.Sessions()) != 1 {
		t.Fatal("listing not loaded at start")
	}
	if err := m.OpenSession(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if m.BPM() != 128 || m.ActiveInstrument() == nil || *m.ActiveInstrument() != id {
		t.Fatal("session state not adopted")
	}
}

func TestSaveFailureKeepsSessionOpen(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(ctx, store)
	m.NewSession("unsaved", 1, 1)
	m.ShowFifths()
	store.saveErr = storage.ErrInsufficientDiskSpace

	if err := m.SaveCurrentSession(ctx); !errors.Is(err, storage.ErrInsufficientDiskSpace) {
		t.Fatalf("save: %v", err)
	}
	if err := m.CloseCurrentSession(ctx); !errors.Is(err, storage.ErrInsufficientDiskSpace) {
		t.Fatalf("close: %v", err)
	}
	if !m.HasActiveSession() || m.ActiveSurface() != model.SurfaceFifths {
		t.Fatal("close cleared state although the save failed")
	}
}

func TestCloseSavesBeforeClearing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(ctx, store)
	s := m.NewSession("closing", 2, 2)
	pad := s.Pads[0].ID
	if err := m.SetActiveInstrument(&pad); err != nil {
		t.Fatal(err)
	}
	m.ShowKeys()

	if err := m.CloseCurrentSession(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.saved[s.ID]; !ok {
		t.Fatal("session not saved on close")
	}
	if m.HasActiveSession() || m.ActiveSurface() != model.SurfaceNone || m.ActiveInstrument() != nil {
		t.Fatal("state not cleared")
	}
	if len(m.Sessions()) != 1 {
		t.Fatal("listing not refreshed")
	}

	saves := store.saves
	m.ShowKeys()
	if err := m.CloseCurrentSession(ctx); err != nil {
		t.Fatal(err)
	}
	if store.saves != saves || m.ActiveSurface() != model.SurfaceNone {
		t.Fatal("close without session should only reset transient state")
	}
}

func TestDeleteCurrentSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(ctx, store)
	s := m.NewSession("doomed", 1, 1)
	if err := m.SaveCurrentSession(ctx); err != nil {
		t.Fatal(err)
	}
	other := model.NewSession("other", 100, 1, 1)
	store.saved[other.ID] = other
	if err := m.RefreshSessions(ctx); err != nil {
		t.Fatal(err)
	}

	store.deleteErr = errors.New("disk on fire")
	if err := m.DeleteSession(ctx, s.ID); err == nil {
		t.Fatal("expected failure")
	}
	if !m.HasActiveSession() || len(m.Sessions()) != 2 {
		t.Fatal("failed delete changed state")
	}

	store.deleteErr = nil
	saves := store.saves
	if err := m.DeleteSession(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if m.HasActiveSession() {
		t.Fatal("deleted session still active")
	}
	if store.saves != saves {
		t.Fatal("deleted session was saved")
	}
	list := m.Sessions()
	if len(list) != 1 || list[0].ID != other.ID {
		t.Fatalf("listing = %+v", list)
	}
}

func TestPadPassThroughs(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	s := m.NewSession("", 2, 3)
	if s.Name != model.DefaultSessionName {
		t.Fatalf("name = %q", s.Name)
	}
	padID := s.Pads[4].ID
	sample := model.NewSample("clap", "/clap.wav")

	if err := m.AssignSample(sample, padID); err != nil {
		t.Fatal(err)
	}
	if err := m.SetPadMode(model.PadModeFilter, padID); err != nil {
		t.Fatal(err)
	}
	p, ok := m.Pad(padID)
	if !ok || p.Sample == nil || p.Sample.ID != sample.ID || p.Mode != model.PadModeFilter {
		t.Fatalf("pad = %+v", p)
	}

	if err := m.SetPadMode("warp", padID); !errors.Is(err, model.ErrInvalidPadUpdate) {
		t.Fatalf("invalid mode: %v", err)
	}
	if err := m.UpdatePad(uuid.New(), model.PadUpdate{}); !errors.Is(err, ErrPadNotFound) {
		t.Fatalf("unknown pad: %v", err)
	}

	// copies handed out must not alias the live session
	p.Sample.Name = "mutated"
	if again, _ := m.Pad(padID); again.Sample.Name != "clap" {
		t.Fatal("Pad returned an alias")
	}
	cur := m.CurrentSession()
	cur.Pads[4].Volume = 0
	if again, _ := m.Pad(padID); again.Volume != 1 {
		t.Fatal("CurrentSession returned an alias")
	}

	if err := m.ClearSample(padID); err != nil {
		t.Fatal(err)
	}
	if again, _ := m.Pad(padID); !again.IsEmpty() {
		t.Fatal("sample not cleared")
	}
}

func TestResizeDropsActiveInstrument(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	s := m.NewSession("r", 4, 4)
	corner := s.Pads[15].ID
	if err := m.SetActiveInstrument(&corner); err != nil {
		t.Fatal(err)
	}
	missing := uuid.New()
	if err := m.SetActiveInstrument(&missing); !errors.Is(err, ErrPadNotFound) {
		t.Fatalf("unknown pad: %v", err)
	}
	if err := m.ResizeGrid(2, 2); err != nil {
		t.Fatal(err)
	}
	if m.ActiveInstrument() != nil || m.CurrentSession().TotalPads() != 4 {
		t.Fatal("resize did not drop the discarded instrument pad")
	}
}

func TestBPMAndSteps(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	m.NewSession("tempo", 1, 1)

	m.SetBPM(120)
	if got := m.SixteenthNoteDuration(); got != 125*time.Millisecond {
		t.Fatalf("16th at 120 = %v", got)
	}
	m.AdjustBPM(500)
	if m.BPM() != 300 || m.CurrentSession().BPM != 300 {
		t.Fatal("bpm not clamped into session")
	}
	m.SetBPM(1)
	if m.BPM() != 20 {
		t.Fatal("low clamp")
	}
	m.SetBPM(math.NaN())
	if m.BPM() != 20 || m.CurrentSession().BPM != 20 {
		t.Fatal("NaN tempo applied")
	}

	for i := 1; i <= StepsPerBar; i++ {
		if got := m.AdvanceStep(); got != i%StepsPerBar {
			t.Fatalf("step %d = %d", i, got)
		}
	}
	m.AdvanceStep()
	m.ResetStep()
	if m.CurrentStep() != 0 {
		t.Fatal("reset")
	}
}

func TestSurfacesAndRecording(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	m.ToggleKeys()
	if m.ActiveSurface() != model.SurfaceKeys {
		t.Fatal("toggle keys on")
	}
	m.ToggleFifths()
	if m.ActiveSurface() != model.SurfaceFifths {
		t.Fatal("toggle fifths switches surface")
	}
	m.ToggleFifths()
	if m.ActiveSurface() != model.SurfaceNone {
		t.Fatal("toggle fifths off")
	}
	m.ShowKeys()
	m.HidePerformanceSurface()
	if m.ActiveSurface() != model.SurfaceNone {
		t.Fatal("hide")
	}

	m.StartRecording()
	if !m.IsRecording() {
		t.Fatal("not recording")
	}
	m.StopRecording()
	if m.IsRecording() {
		t.Fatal("still recording")
	}
}

func TestVisualSettingsPassThroughs(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	m.NewSession("look", 1, 1)

	if err := m.SetTintColor("#f0a"); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTintColor("purple"); err == nil {
		t.Fatal("invalid tint accepted")
	}
	if err := m.AdjustBrightness(-0.4); err != nil {
		t.Fatal(err)
	}
	if err := m.SetStylePreset(model.StyleRetro); err != nil {
		t.Fatal(err)
	}
	if err := m.SetStylePreset("Vapor"); err == nil {
		t.Fatal("unknown preset accepted")
	}
	v := m.CurrentSession().VisualSettings
	if v.TintColorHex != "#FF00AA" || v.Brightness != 0.6 || v.StylePreset != model.StyleRetro {
		t.Fatalf("visual settings = %+v", v)
	}

	bad := v
	bad.TintColorHex = "zzz"
	if err := m.UpdateVisualSettings(bad); err == nil {
		t.Fatal("invalid settings accepted")
	}
	if err := m.UpdateVisualSettings(model.DefaultVisualSettings()); err != nil {
		t.Fatal(err)
	}
	if m.CurrentSession().VisualSettings != model.DefaultVisualSettings() {
		t.Fatal("settings not replaced")
	}
}

func TestLibrary(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	c := m.CreateCollection("Field Recordings")
	if !c.IsUserCollection || len(m.Library()) != 5 {
		t.Fatal("collection not created")
	}
	s := model.NewSample("rain", "/rain.wav")
	if ok, err := m.AddSample(s, c.ID); !ok || err != nil {
		t.Fatalf("add: %v %v", ok, err)
	}
	if ok, _ := m.AddSample(s, c.ID); ok {
		t.Fatal("duplicate added")
	}
	if _, err := m.AddSample(s, uuid.New()); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("unknown collection: %v", err)
	}
	if ok, err := m.RemoveSample(s.ID, c.ID); !ok || err != nil {
		t.Fatalf("remove: %v %v", ok, err)
	}

	lib := m.Library()
	lib[0].Name = "changed"
	if m.Library()[0].Name == "changed" {
		t.Fatal("Library returned an alias")
	}
}

func TestImportAudioFile(t *testing.T) {
	ctx := context.Background()
	fm := storage.NewFileManager(t.TempDir(), nil)
	m := NewManager(ctx, fm)
	s := m.NewSession("imports", 1, 1)

	src := filepath.Join(t.TempDir(), "808 Kick.wav")
	if err := os.WriteFile(src, []byte("boom"), 0644); err != nil {
		t.Fatal(err)
	}
	sample, err := m.ImportAudioFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if sample.Name != "808 Kick" || filepath.Dir(sample.FileURL) == filepath.Dir(src) {
		t.Fatalf("sample = %+v", sample)
	}
	if data, err := os.ReadFile(sample.FileURL); err != nil || string(data) != "boom" {
		t.Fatalf("copy: %q %v", data, err)
	}

	var imports *model.SampleCollection
	lib := m.Library()
	for i := range lib {
		if lib[i].Name == model.CollectionUserImports {
			imports = &lib[i]
		}
	}
	if imports == nil {
		t.Fatal("no User Imports collection")
	}
	if _, ok := imports.Find(sample.ID); !ok {
		t.Fatal("sample not in User Imports")
	}

	if err := m.AssignSample(sample, s.Pads[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveCurrentSession(ctx); err != nil {
		t.Fatal(err)
	}
	loaded, err := fm.LoadSession(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Pads[0].Sample == nil || loaded.Pads[0].Sample.FileURL != sample.FileURL {
		t.Fatal("assignment not persisted")
	}
}

func TestImportCreatesUserImportsOnFirstUse(t *testing.T) {
	m := NewManager(context.Background(), newFakeStore())
	m.library = m.library[:3]
	m.NewSession("x", 1, 1)
	if _, err := m.ImportAudioFile("/tmp/snare.aif"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ImportAudioFile("/tmp/hat.aif"); err != nil {
		t.Fatal(err)
	}
	lib := m.Library()
	if len(lib) != 4 || lib[3].Name != model.CollectionUserImports || len(lib[3].Samples) != 2 {
		t.Fatalf("library = %+v", lib)
	}
}
