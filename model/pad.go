package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// PadMode is the operating mode of a pad.
type PadMode string

const (
	PadModeTap    PadMode = "tap"    // one-shot playback
	PadModeLoop   PadMode = "loop"   // quantized looping
	PadModeFilter PadMode = "filter" // delay effect
	PadModeMic    PadMode = "mic"    // microphone recording
	PadModeEdit   PadMode = "edit"   // reassign sample
	PadModeVolume PadMode = "volume" // volume control
)

// PadModes lists every mode in display order.
var PadModes = []PadMode{PadModeTap, PadModeLoop, PadModeFilter, PadModeMic, PadModeEdit, PadModeVolume}

// Valid reports whether m is a known mode.
func (m PadMode) Valid() bool {
	for _, known := range PadModes {
		if m == known {
			return true
		}
	}
	return false
}

// DisplayName returns the label shown on the mode selector.
func (m PadMode) DisplayName() string {
	switch m {
	case PadModeTap:
		return "Tap"
	case PadModeLoop:
		return "Loop"
	case PadModeFilter:
		return "Filter"
	case PadModeMic:
		return "Mic"
	case PadModeEdit:
		return "Edit"
	case PadModeVolume:
		return "Volume"
	}
	return string(m)
}

// LoopRepeatOptions are the finite loop counts a pad accepts. No count means loop forever.
var LoopRepeatOptions = []int{2, 4, 6, 12, 24}

// ValidLoopRepeatCount reports whether n is one of LoopRepeatOptions.
func ValidLoopRepeatCount(n int) bool {
	for _, opt := range LoopRepeatOptions {
		if n == opt {
			return true
		}
	}
	return false
}

// Pad defaults
const (
	DefaultPadVolume        = 1.0
	DefaultPadPan           = 0.0
	DefaultPadDelayTime     = 0.25
	DefaultPadDelayFeedback = 0.3
	DefaultPadDelayMix      = 0.5
)

// Pad is a single cell of the performance grid.
type Pad struct {
	ID     uuid.UUID `json:"id"`
	Sample *Sample   `json:"sample,omitempty"`
	Mode   PadMode   `json:"mode"`
	Volume float64   `json:"volume"` // 0..1
	Pan    float64   `json:"pan"`    // -1 (left) .. 1 (right)

	// Loop mode
	IsLooping       bool `json:"isLooping"`
	LoopRepeatCount *int `json:"loopRepeatCount,omitempty"` // nil = infinite

	// Filter mode
	FilterEnabled bool    `json:"filterEnabled"`
	DelayTime     float64 `json:"delayTime"` // seconds
	DelayFeedback float64 `json:"delayFeedback"`
	DelayMix      float64 `json:"delayMix"`

	// IsPlaying is runtime state only and is never persisted.
	IsPlaying bool `json:"-"`

	Row    int `json:"row"`
	Column int `json:"column"`
}

// NewPad creates an empty pad with default settings at the given position.
func NewPad(row, column int) Pad {
	return Pad{
		ID:            uuid.New(),
		Mode:          PadModeTap,
		Volume:        DefaultPadVolume,
		Pan:           DefaultPadPan,
		DelayTime:     DefaultPadDelayTime,
		DelayFeedback: DefaultPadDelayFeedback,
		DelayMix:      DefaultPadDelayMix,
		Row:           row,
		Column:        column,
	}
}

// IsEmpty reports whether no sample is assigned.
func (p Pad) IsEmpty() bool {
	return p.Sample == nil
}

// DisplayName is the sample name, or "Empty".
func (p Pad) DisplayName() string {
	if p.Sample == nil {
		return "Empty"
	}
	return p.Sample.Name
}

// LoopRepeatDisplay renders the loop count, "∞" when unbounded.
func (p Pad) LoopRepeatDisplay() string {
	if p.LoopRepeatCount == nil {
		return "∞"
	}
	return strconv.Itoa(*p.LoopRepeatCount)
}

func (p Pad) clone() Pad {
	c := p
	if p.Sample != nil {
		s := p.Sample.clone()
		c.Sample = &s
	}
	if p.LoopRepeatCount != nil {
		n := *p.LoopRepeatCount
		c.LoopRepeatCount = &n
	}
	return c
}

// ErrInvalidPadUpdate is returned by PadUpdate.Validate.
var ErrInvalidPadUpdate = errors.New("invalid pad update")

// PadUpdate is a partial pad change. Nil fields are left untouched.
type PadUpdate struct {
	Sample      *Sample
	ClearSample bool
	Mode        *PadMode
	Volume      *float64
	Pan         *float64
	IsLooping   *bool
	// LoopRepeatCount sets a finite count; 0 switches back to infinite looping.
	LoopRepeatCount *int
	FilterEnabled   *bool
	DelayTime       *float64
	DelayFeedback   *float64
	DelayMix        *float64
	IsPlaying       *bool
}

// Validate checks enumerated fields. Numeric ranges are clamped on apply rather than rejected.
func (u PadUpdate) Validate() error {
	if u.Mode != nil && !u.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidPadUpdate, *u.Mode)
	}
	if u.LoopRepeatCount != nil && *u.LoopRepeatCount != 0 && !ValidLoopRepeatCount(*u.LoopRepeatCount) {
		return fmt.Errorf("%w: loop repeat count %d not in %v", ErrInvalidPadUpdate, *u.LoopRepeatCount, LoopRepeatOptions)
	}
	if u.Sample != nil && u.ClearSample {
		return fmt.Errorf("%w: sample both set and cleared", ErrInvalidPadUpdate)
	}
	return nil
}

// apply mutates p. Invalid enumerated values and NaN are skipped.
func (u PadUpdate) apply(p *Pad) {
	if u.ClearSample {
		p.Sample = nil
	}
	if u.Sample != nil {
		s := u.Sample.clone()
		p.Sample = &s
	}
	if u.Mode != nil && u.Mode.Valid() {
		p.Mode = *u.Mode
	}
	if usable(u.Volume) {
		p.Volume = clamp(*u.Volume, 0, 1)
	}
	if usable(u.Pan) {
		p.Pan = clamp(*u.Pan, -1, 1)
	}
	if u.IsLooping != nil {
		p.IsLooping = *u.IsLooping
	}
	if u.LoopRepeatCount != nil {
		switch n := *u.LoopRepeatCount; {
		case n == 0:
			p.LoopRepeatCount = nil
		case ValidLoopRepeatCount(n):
			p.LoopRepeatCount = &n
		}
	}
	if u.FilterEnabled != nil {
		p.FilterEnabled = *u.FilterEnabled
	}
	if usable(u.DelayTime) && *u.DelayTime >= 0 && !math.IsInf(*u.DelayTime, 1) {
		p.DelayTime = *u.DelayTime
	}
	if usable(u.DelayFeedback) {
		p.DelayFeedback = clamp(*u.DelayFeedback, 0, 1)
	}
	if usable(u.DelayMix) {
		p.DelayMix = clamp(*u.DelayMix, 0, 1)
	}
	if u.IsPlaying != nil {
		p.IsPlaying = *u.IsPlaying
	}
}

func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}

// finite reports whether every value can be written as JSON.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
