package model

import (
	"errors"
	"math"
	"testing"
)

func TestNewPadDefaults(t *testing.T) {
	p := NewPad(2, 3)
	if p.Mode != PadModeTap || p.Volume != 1 || p.Pan != 0 {
		t.Fatalf("unexpected pad %+v", p)
	}
	if p.DelayTime != 0.25 || p.DelayFeedback != 0.3 || p.DelayMix != 0.5 {
		t.Fatalf("unexpected delay settings %+v", p)
	}
	if p.Row != 2 || p.Column != 3 || !p.IsEmpty() || p.LoopRepeatCount != nil {
		t.Fatalf("unexpected pad %+v", p)
	}
}

func TestPadModeDisplayName(t *testing.T) {
	want := []string{"Tap", "Loop", "Filter", "Mic", "Edit", "Volume"}
	for i, m := range PadModes {
		if m.DisplayName() != want[i] {
			t.Errorf("%s: got %q", m, m.DisplayName())
		}
		if !m.Valid() {
			t.Errorf("%s not valid", m)
		}
	}
	if PadMode("bogus").Valid() {
		t.Error("bogus mode valid")
	}
}

func TestPadUpdateValidate(t *testing.T) {
	bad := PadMode("warp")
	s := NewSample("x", "/x.wav")
	cases := []struct {
		name string
		upd  PadUpdate
		ok   bool
	}{
		{"empty", PadUpdate{}, true},
		{"loop 12", PadUpdate{LoopRepeatCount: ptr(12)}, true},
		{"loop infinite", PadUpdate{LoopRepeatCount: ptr(0)}, true},
		{"loop 3", PadUpdate{LoopRepeatCount: ptr(3)}, false},
		{"mode", PadUpdate{Mode: &bad}, false},
		{"set and clear", PadUpdate{Sample: &s, ClearSample: true}, false},
	}
	for _, c := range cases {
		err := c.upd.Validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidPadUpdate) {
			t.Errorf("%s: got %v, want ErrInvalidPadUpdate", c.name, err)
		}
	}
}

func TestPadUpdateClamps(t *testing.T) {
	p := NewPad(0, 0)
	PadUpdate{
		Volume:        ptr(-0.5),
		Pan:           ptr(2.0),
		DelayFeedback: ptr(1.5),
		DelayMix:      ptr(-1.0),
		DelayTime:     ptr(-1.0),
	}.apply(&p)
	if p.Volume != 0 || p.Pan != 1 || p.DelayFeedback != 1 || p.DelayMix != 0 {
		t.Fatalf("not clamped: %+v", p)
	}
	if p.DelayTime != DefaultPadDelayTime {
		t.Fatalf("negative delay time applied: %v", p.DelayTime)
	}
}

func TestPadUpdateSkipsNaN(t *testing.T) {
	p := NewPad(0, 0)
	nan := math.NaN()
	PadUpdate{
		Volume:        &nan,
		Pan:           &nan,
		DelayTime:     ptr(math.Inf(1)),
		DelayFeedback: &nan,
		DelayMix:      &nan,
	}.apply(&p)
	want := NewPad(0, 0)
	if p.Volume != want.Volume || p.Pan != want.Pan || p.DelayTime != want.DelayTime ||
		p.DelayFeedback != want.DelayFeedback || p.DelayMix != want.DelayMix {
		t.Fatalf("non-finite values applied: %+v", p)
	}
}
