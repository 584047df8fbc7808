package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Now is the clock used for every timestamp in the model. Times are UTC and
// truncated to milliseconds so they survive an RFC 3339 round trip unchanged.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Session defaults and limits
const (
	DefaultSessionName = "New Session"
	DefaultBPM         = 102.0
	DefaultRows        = 5
	DefaultColumns     = 8
	MinBPM             = 20.0
	MaxBPM             = 300.0
)

// Session is a saved project: pad grid, tempo, theme and recordings.
//
// Pads always holds exactly Rows*Columns pads, one per grid position.
type Session struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BPM        float64   `json:"bpm"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`

	Rows    int   `json:"rows"`
	Columns int   `json:"columns"`
	Pads    []Pad `json:"pads"`

	VisualSettings VisualSettings `json:"visualSettings"`

	ActiveInstrumentPadID *uuid.UUID  `json:"activeInstrumentPadID,omitempty"`
	Recordings            []Recording `json:"recordings"`
}

// NewSession builds a session with a fresh default pad grid.
func NewSession(name string, bpm float64, rows, columns int) *Session {
	now := Now()
	if math.IsNaN(bpm) {
		bpm = DefaultBPM
	}
	s := &Session{
		ID:             uuid.New(),
		Name:           name,
		BPM:            clamp(bpm, MinBPM, MaxBPM),
		CreatedAt:      now,
		ModifiedAt:     now,
		VisualSettings: DefaultVisualSettings(),
		Recordings:     []Recording{},
	}
	s.Rows, s.Columns = max(rows, 0), max(columns, 0)
	s.Pads = make([]Pad, 0, s.Rows*s.Columns)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Columns; c++ {
			s.Pads = append(s.Pads, NewPad(r, c))
		}
	}
	return s
}

// NewDefaultSession is a 5x8 grid at 102 BPM.
func NewDefaultSession() *Session {
	return NewSession(DefaultSessionName, DefaultBPM, DefaultRows, DefaultColumns)
}

func (s *Session) touch() {
	s.ModifiedAt = Now()
}

// TotalPads is Rows*Columns.
func (s *Session) TotalPads() int {
	return s.Rows * s.Columns
}

// AssignedPads returns the pads that have a sample.
func (s *Session) AssignedPads() []Pad {
	var out []Pad
	for _, p := range s.Pads {
		if !p.IsEmpty() {
			out = append(out, p)
		}
	}
	return out
}

// EmptyPads returns the pads without a sample.
func (s *Session) EmptyPads() []Pad {
	var out []Pad
	for _, p := range s.Pads {
		if p.IsEmpty() {
			out = append(out, p)
		}
	}
	return out
}

// PadAt finds the pad at a grid position. The result is a copy.
func (s *Session) PadAt(row, column int) (Pad, bool) {
	for _, p := range s.Pads {
		if p.Row == row && p.Column == column {
			return p.clone(), true
		}
	}
	return Pad{}, false
}

// PadByID finds a pad by its ID. The result is a copy.
func (s *Session) PadByID(id uuid.UUID) (Pad, bool) {
	if i := s.padIndex(id); i >= 0 {
		return s.Pads[i].clone(), true
	}
	return Pad{}, false
}

func (s *Session) padIndex(id uuid.UUID) int {
	for i := range s.Pads {
		if s.Pads[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdatePad applies upd to the pad with the given ID and bumps ModifiedAt.
// It does nothing and returns false when no pad matches.
func (s *Session) UpdatePad(id uuid.UUID, upd PadUpdate) bool {
	i := s.padIndex(id)
	if i < 0 {
		return false
	}
	upd.apply(&s.Pads[i])
	s.touch()
	return true
}

// ReplacePad overwrites the pad that has pad.ID. The grid position of the
// stored pad is kept so the grid invariant cannot be broken from outside.
func (s *Session) ReplacePad(pad Pad) bool {
	i := s.padIndex(pad.ID)
	if i < 0 {
		return false
	}
	pad = pad.clone()
	pad.Row, pad.Column = s.Pads[i].Row, s.Pads[i].Column
	s.Pads[i] = pad
	s.touch()
	return true
}

// Resize rebuilds the grid for the new dimensions. Pads whose position is
// still inside the grid are kept as they are; new positions get default pads.
// Pads outside the new bounds are discarded together with their samples.
func (s *Session) Resize(rows, columns int) {
	rows, columns = max(rows, 0), max(columns, 0)

	byPos := make(map[[2]int]Pad, len(s.Pads))
	for _, p := range s.Pads {
		key := [2]int{p.Row, p.Column}
		if _, dup := byPos[key]; !dup {
			byPos[key] = p
		}
	}

	pads := make([]Pad, 0, rows*columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			if p, ok := byPos[[2]int{r, c}]; ok {
				pads = append(pads, p)
			} else {
				pads = append(pads, NewPad(r, c))
			}
		}
	}
	if s.ActiveInstrumentPadID != nil {
		found := false
		for _, p := range pads {
			if p.ID == *s.ActiveInstrumentPadID {
				found = true
				break
			}
		}
		if !found {
			s.ActiveInstrumentPadID = nil
		}
	}
	s.Rows, s.Columns, s.Pads = rows, columns, pads
	s.touch()
}

// SetBPM clamps to [MinBPM, MaxBPM]. NaN is ignored.
func (s *Session) SetBPM(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}
	s.BPM = clamp(bpm, MinBPM, MaxBPM)
	s.touch()
}

// AdjustBPM adds delta to the current tempo, clamped.
func (s *Session) AdjustBPM(delta float64) {
	s.SetBPM(s.BPM + delta)
}

// AddRecording appends a recording.
func (s *Session) AddRecording(r Recording) {
	s.Recordings = append(s.Recordings, r)
	s.touch()
}

// SetVisualSettings replaces the theme. Brightness is clamped; a NaN
// brightness keeps the current one.
func (s *Session) SetVisualSettings(v VisualSettings) {
	v = v.clone()
	if math.IsNaN(v.Brightness) {
		v.Brightness = s.VisualSettings.Brightness
	}
	v.Brightness = clamp(v.Brightness, 0, 1)
	s.VisualSettings = v
	s.touch()
}

// SetActiveInstrument designates the pad driving the Keys/5ths surfaces.
// A nil id clears it. Unknown pad IDs are ignored and false is returned.
func (s *Session) SetActiveInstrument(id *uuid.UUID) bool {
	if id == nil {
		s.ActiveInstrumentPadID = nil
		return true
	}
	if s.padIndex(*id) < 0 {
		return false
	}
	v := *id
	s.ActiveInstrumentPadID = &v
	return true
}

// ResetTransient clears runtime-only state such as IsPlaying.
func (s *Session) ResetTransient() {
	for i := range s.Pads {
		s.Pads[i].IsPlaying = false
	}
}

// Clone returns a deep copy; mutating the copy never affects s.
func (s *Session) Clone() *Session {
	c := *s
	c.Pads = make([]Pad, len(s.Pads))
	for i, p := range s.Pads {
		c.Pads[i] = p.clone()
	}
	c.Recordings = append([]Recording{}, s.Recordings...)
	c.VisualSettings = s.VisualSettings.clone()
	if s.ActiveInstrumentPadID != nil {
		id := *s.ActiveInstrumentPadID
		c.ActiveInstrumentPadID = &id
	}
	return &c
}

// ErrInvalidSession is wrapped by every Validate failure.
var ErrInvalidSession = errors.New("invalid session")

// Validate checks the structural invariants a loaded session must satisfy.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidSession)
	}
	if s.Rows < 0 || s.Columns < 0 {
		return fmt.Errorf("%w: negative grid %dx%d", ErrInvalidSession, s.Rows, s.Columns)
	}
	if math.IsNaN(s.BPM) || s.BPM < MinBPM || s.BPM > MaxBPM {
		return fmt.Errorf("%w: bpm %v out of range", ErrInvalidSession, s.BPM)
	}
	if len(s.Pads) != s.Rows*s.Columns {
		return fmt.Errorf("%w: %d pads for a %dx%d grid", ErrInvalidSession, len(s.Pads), s.Rows, s.Columns)
	}
	seenPos := make(map[[2]int]struct{}, len(s.Pads))
	seenID := make(map[uuid.UUID]struct{}, len(s.Pads))
	for _, p := range s.Pads {
		if p.Row < 0 || p.Row >= s.Rows || p.Column < 0 || p.Column >= s.Columns {
			return fmt.Errorf("%w: pad at (%d,%d) outside grid", ErrInvalidSession, p.Row, p.Column)
		}
		key := [2]int{p.Row, p.Column}
		if _, dup := seenPos[key]; dup {
			return fmt.Errorf("%w: duplicate pad at (%d,%d)", ErrInvalidSession, p.Row, p.Column)
		}
		seenPos[key] = struct{}{}
		if p.ID == uuid.Nil {
			return fmt.Errorf("%w: pad at (%d,%d) has no id", ErrInvalidSession, p.Row, p.Column)
		}
		if _, dup := seenID[p.ID]; dup {
			return fmt.Errorf("%w: duplicate pad id %s", ErrInvalidSession, p.ID)
		}
		seenID[p.ID] = struct{}{}
		if !p.Mode.Valid() {
			return fmt.Errorf("%w: pad %s has unknown mode %q", ErrInvalidSession, p.ID, p.Mode)
		}
		if !finite(p.Volume, p.Pan, p.DelayTime, p.DelayFeedback, p.DelayMix) {
			return fmt.Errorf("%w: pad %s has a non-finite parameter", ErrInvalidSession, p.ID)
		}
	}
	if !finite(s.VisualSettings.Brightness) {
		return fmt.Errorf("%w: brightness %v", ErrInvalidSession, s.VisualSettings.Brightness)
	}
	return nil
}

// Summary projects the session for listings.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:                s.ID,
		Name:              s.Name,
		CreatedAt:         s.CreatedAt,
		ModifiedAt:        s.ModifiedAt,
		BPM:               s.BPM,
		AssignedPadsCount: len(s.AssignedPads()),
	}
}

// Recording is a rendered take stored under the session's recordings directory.
type Recording struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FileURL   string    `json:"fileURL"`
	Duration  float64   `json:"duration"` // seconds
	CreatedAt time.Time `json:"createdAt"`
}

// NewRecording creates a recording stamped with the current time.
func NewRecording(name, fileURL string, duration float64) Recording {
	return Recording{
		ID:        uuid.New(),
		Name:      name,
		FileURL:   fileURL,
		Duration:  duration,
		CreatedAt: Now(),
	}
}

// SessionSummary is the listing projection of a session. It doubles as the
// row type of the summary index table.
type SessionSummary struct {
	ID                uuid.UUID `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name              string    `json:"name" gorm:"size:255;not null"`
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime:false"`
	ModifiedAt        time.Time `json:"modifiedAt" gorm:"index"`
	BPM               float64   `json:"bpm"`
	AssignedPadsCount int       `json:"assignedPadsCount"`

	// Size and mtime (unix nanoseconds) of the session file the summary was
	// read from. An index row is only served while both still match the file.
	FileSize    int64 `json:"fileSize,omitempty" gorm:"not null;default:0"`
	FileModTime int64 `json:"fileModTime,omitempty" gorm:"not null;default:0"`
}

// TableName 指定表名
func (SessionSummary) TableName() string {
	return "session_summaries"
}
