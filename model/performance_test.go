package model

import (
	"math"
	"testing"
)

func TestMusicalNote(t *testing.T) {
	cases := []struct {
		midi  int
		name  string
		black bool
	}{
		{60, "C4", false},
		{61, "C#4", true},
		{69, "A4", false},
		{78, "F#5", true},
		{0, "C-1", false},
		{127, "G9", false},
	}
	for _, c := range cases {
		n := NewMusicalNote(c.midi)
		if n.Name != c.name || n.IsBlackKey != c.black {
			t.Errorf("%d: got %q black=%v", c.midi, n.Name, n.IsBlackKey)
		}
	}

	if f := NewMusicalNote(69).Frequency(); f != 440 {
		t.Errorf("A4 = %v Hz", f)
	}
	if f := NewMusicalNote(81).Frequency(); math.Abs(f-880) > 1e-9 {
		t.Errorf("A5 = %v Hz", f)
	}
	if s := NewMusicalNote(55).PitchShiftSemitones(); s != -5 {
		t.Errorf("G3 shift = %v", s)
	}
}

func TestMusicalNoteMessages(t *testing.T) {
	n := NewMusicalNote(64)
	var ch, key, vel uint8
	if !n.NoteOn(2, 100).GetNoteOn(&ch, &key, &vel) {
		t.Fatal("not a note-on message")
	}
	if ch != 2 || key != 64 || vel != 100 {
		t.Fatalf("got ch=%d key=%d vel=%d", ch, key, vel)
	}
	if !n.NoteOff(2).GetNoteOff(&ch, &key, &vel) || key != 64 {
		t.Fatal("bad note-off")
	}
}

func TestKeyRange(t *testing.T) {
	keys := KeyRange(60, 72)
	if len(keys) != 13 || keys[0].Name != "C4" || keys[12].Name != "C5" {
		t.Fatalf("unexpected range %v", keys)
	}
	if KeyRange(5, 4) != nil {
		t.Fatal("inverted range should be empty")
	}
}

func TestCircleOfFifths(t *testing.T) {
	keys := CircleOfFifths()
	want := []uint8{60, 67, 62, 69, 64, 71, 66, 61, 68, 63, 70, 65}
	if len(keys) != 12 {
		t.Fatalf("len = %d", len(keys))
	}
	for i, k := range keys {
		if k.Position != i || k.MIDIRootNote() != want[i] {
			t.Errorf("%s: position %d root %d", k.RootNote, k.Position, k.MIDIRootNote())
		}
	}
	if keys[6].DisplayName() != "F# Major" {
		t.Errorf("display = %q", keys[6].DisplayName())
	}
	if (CircleOfFifthsKey{RootNote: "H"}).MIDIRootNote() != MiddleC {
		t.Error("unknown root should fall back to middle C")
	}
}

func TestMPEDefaults(t *testing.T) {
	p := DefaultMPEParameters()
	if p.PitchBend != 0 || p.Pressure != 0.7 || p.Timbre != 0.5 {
		t.Fatalf("defaults = %+v", p)
	}
	if msgs := p.Messages(0); len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
}

func TestPerformanceSurface(t *testing.T) {
	if SurfaceNone.IsActive() || !SurfaceKeys.IsActive() || !SurfaceFifths.IsActive() {
		t.Fatal("IsActive wrong")
	}
	if SurfaceFifths.DisplayName() != "5ths" {
		t.Fatal("display name wrong")
	}
}
