package model

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
)

// PerformanceSurface selects the alternate input surface mapped onto the
// active instrument pad.
type PerformanceSurface string

const (
	SurfaceNone   PerformanceSurface = "none"
	SurfaceKeys   PerformanceSurface = "keys"
	SurfaceFifths PerformanceSurface = "fifths"
)

func (s PerformanceSurface) DisplayName() string {
	switch s {
	case SurfaceKeys:
		return "Keys"
	case SurfaceFifths:
		return "5ths"
	}
	return "None"
}

// IsActive reports whether any surface is shown.
func (s PerformanceSurface) IsActive() bool {
	return s == SurfaceKeys || s == SurfaceFifths
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MiddleC is MIDI note 60 (C4).
const MiddleC = 60

// MusicalNote is one key of the on-screen keyboard.
type MusicalNote struct {
	MIDINote   uint8
	Name       string // e.g. "C4", "F#5"
	IsBlackKey bool
}

// NewMusicalNote builds a note from a MIDI number. Values above 127 are clamped.
func NewMusicalNote(midiNote int) MusicalNote {
	n := min(max(midiNote, 0), 127)
	idx := n % 12
	return MusicalNote{
		MIDINote:   uint8(n),
		Name:       fmt.Sprintf("%s%d", noteNames[idx], n/12-1),
		IsBlackKey: idx == 1 || idx == 3 || idx == 6 || idx == 8 || idx == 10,
	}
}

// Frequency in Hz, A4 (69) = 440.
func (n MusicalNote) Frequency() float64 {
	return 440.0 * math.Pow(2, float64(int(n.MIDINote)-69)/12.0)
}

// PitchShiftSemitones is the offset from middle C, used to repitch the
// instrument pad's sample.
func (n MusicalNote) PitchShiftSemitones() float64 {
	return float64(int(n.MIDINote) - MiddleC)
}

// NoteOn builds the MIDI note-on message for this key.
func (n MusicalNote) NoteOn(channel, velocity uint8) midi.Message {
	return midi.NoteOn(channel, n.MIDINote, velocity)
}

// NoteOff builds the matching note-off message.
func (n MusicalNote) NoteOff(channel uint8) midi.Message {
	return midi.NoteOff(channel, n.MIDINote)
}

// KeyRange returns the notes from low to high inclusive.
func KeyRange(low, high int) []MusicalNote {
	if high < low {
		return nil
	}
	notes := make([]MusicalNote, 0, high-low+1)
	for n := low; n <= high; n++ {
		notes = append(notes, NewMusicalNote(n))
	}
	return notes
}

type KeyMode string

const (
	KeyMajor KeyMode = "Major"
	KeyMinor KeyMode = "Minor"
)

// CircleOfFifthsKey is one segment of the circle-of-fifths surface.
type CircleOfFifthsKey struct {
	RootNote string
	Mode     KeyMode
	Position int // 0..11 clockwise from C
}

var fifthsRootMIDI = map[string]uint8{
	"C": 60, "G": 67, "D": 62, "A": 69, "E": 64, "B": 71,
	"F#": 66, "Db": 61, "Ab": 68, "Eb": 63, "Bb": 70, "F": 65,
}

func (k CircleOfFifthsKey) DisplayName() string {
	return k.RootNote + " " + string(k.Mode)
}

// MIDIRootNote is the root in octave 4; unknown roots fall back to middle C.
func (k CircleOfFifthsKey) MIDIRootNote() uint8 {
	if n, ok := fifthsRootMIDI[k.RootNote]; ok {
		return n
	}
	return MiddleC
}

// CircleOfFifths returns the twelve major keys in circle order.
func CircleOfFifths() []CircleOfFifthsKey {
	roots := []string{"C", "G", "D", "A", "E", "B", "F#", "Db", "Ab", "Eb", "Bb", "F"}
	keys := make([]CircleOfFifthsKey, len(roots))
	for i, r := range roots {
		keys[i] = CircleOfFifthsKey{RootNote: r, Mode: KeyMajor, Position: i}
	}
	return keys
}

// MPEParameters carries per-note expression.
type MPEParameters struct {
	PitchBend float64 // -1..1
	Pressure  float64 // 0..1
	Timbre    float64 // 0..1
}

func DefaultMPEParameters() MPEParameters {
	return MPEParameters{PitchBend: 0, Pressure: 0.7, Timbre: 0.5}
}

// mpeTimbreCC is the controller MPE uses for the third dimension.
const mpeTimbreCC = 74

// Messages renders the expression as pitch bend, channel pressure and CC74.
func (p MPEParameters) Messages(channel uint8) []midi.Message {
	bend := int16(math.Round(clamp(p.PitchBend, -1, 1) * 8191))
	return []midi.Message{
		midi.Pitchbend(channel, bend),
		midi.AfterTouch(channel, uint8(math.Round(clamp(p.Pressure, 0, 1)*127))),
		midi.ControlChange(channel, mpeTimbreCC, uint8(math.Round(clamp(p.Timbre, 0, 1)*127))),
	}
}
