package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StylePreset is a named visual theme.
type StylePreset string

const (
	StyleDefault StylePreset = "Default"
	StyleMinimal StylePreset = "Minimal"
	StyleNeon    StylePreset = "Neon"
	StyleRetro   StylePreset = "Retro"
	StyleCyber   StylePreset = "Cyber"
)

// StylePresets lists every preset in display order.
var StylePresets = []StylePreset{StyleDefault, StyleMinimal, StyleNeon, StyleRetro, StyleCyber}

func (s StylePreset) Valid() bool {
	for _, p := range StylePresets {
		if s == p {
			return true
		}
	}
	return false
}

func (s StylePreset) Description() string {
	switch s {
	case StyleMinimal:
		return "Ultra-minimal interface"
	case StyleNeon:
		return "Bright neon accents"
	case StyleRetro:
		return "Vintage aesthetic"
	case StyleCyber:
		return "Cyberpunk vibes"
	}
	return "Clean monochromatic design"
}

// PrimaryColorHex is the accent colour the renderer uses for the preset.
func (s StylePreset) PrimaryColorHex() string {
	switch s {
	case StyleMinimal:
		return "#808080"
	case StyleNeon:
		return "#00FF00"
	case StyleRetro:
		return "#FFA500"
	case StyleCyber:
		return "#00FFFF"
	}
	return "#FFFFFF"
}

func (s StylePreset) AccentOpacity() float64 {
	switch s {
	case StyleMinimal:
		return 0.6
	case StyleRetro:
		return 0.8
	case StyleCyber:
		return 0.9
	}
	return 1.0
}

// DefaultTintColorHex is white.
const DefaultTintColorHex = "#FFFFFF"

// VisualSettings holds the session theme. Colours are stored as hex strings
// so the file stays independent of any rendering toolkit.
type VisualSettings struct {
	TintColorHex  string      `json:"tintColorHex"`
	Brightness    float64     `json:"brightness"` // 0..1
	ArtworkURL    *string     `json:"artworkURL,omitempty"`
	ArtworkPrompt *string     `json:"artworkPrompt,omitempty"`
	StylePreset   StylePreset `json:"stylePreset"`
}

// DefaultVisualSettings returns white tint, full brightness, default preset.
func DefaultVisualSettings() VisualSettings {
	return VisualSettings{
		TintColorHex: DefaultTintColorHex,
		Brightness:   1.0,
		StylePreset:  StyleDefault,
	}
}

// ErrInvalidColor is returned for hex strings that are not #RGB, #RRGGBB or #AARRGGBB.
var ErrInvalidColor = errors.New("invalid hex color")

// NormalizeHexColor expands and upper-cases a hex colour. A leading '#' is optional.
func NormalizeHexColor(hex string) (string, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if _, err := strconv.ParseUint(h, 16, 64); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	switch len(h) {
	case 3:
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	case 6, 8:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return "#" + strings.ToUpper(h), nil
}

// SetTintColorHex validates and stores a tint colour.
func (v *VisualSettings) SetTintColorHex(hex string) error {
	normalized, err := NormalizeHexColor(hex)
	if err != nil {
		return err
	}
	v.TintColorHex = normalized
	return nil
}

// AdjustBrightness adds delta and clamps to [0,1].
func (v *VisualSettings) AdjustBrightness(delta float64) {
	if math.IsNaN(delta) {
		return
	}
	v.Brightness = clamp(v.Brightness+delta, 0, 1)
}

func (v VisualSettings) clone() VisualSettings {
	c := v
	if v.ArtworkURL != nil {
		s := *v.ArtworkURL
		c.ArtworkURL = &s
	}
	if v.ArtworkPrompt != nil {
		s := *v.ArtworkPrompt
		c.ArtworkPrompt = &s
	}
	return c
}
