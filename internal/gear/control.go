package gear

import (
	"regexp"
	"strings"
)

// ControlKind identifies the interaction style of a control.
type ControlKind string

const (
	ControlKindKnob   ControlKind = "knob"
	ControlKindFader  ControlKind = "fader"
	ControlKindSwitch ControlKind = "switch"
	ControlKindButton ControlKind = "button"
)

// Rect is a position and size in faceplate coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in rack coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ControlOption is one selectable position of a switch or button.
type ControlOption struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Frame Rect    `json:"frame"`
}

// KnobData holds the fields that only exist on knobs.
type KnobData struct {
	StartAngle  float64   `json:"start_angle"`
	EndAngle    float64   `json:"end_angle"`
	Steps       []float64 `json:"steps,omitempty"`
	CurrentStep int       `json:"current_step,omitempty"`
}

// FaderData holds the fields that only exist on faders.
type FaderData struct {
	Orientation string  `json:"orientation"`
	Length      float64 `json:"length"`
}

// SwitchData holds the fields shared by switches and buttons: an ordered
// option list and the index of the selected option.
type SwitchData struct {
	Options      []ControlOption `json:"options"`
	CurrentIndex int             `json:"current_index"`
}

// ControlDescriptor describes one interactive element on a gear unit.
// Exactly one of Knob/Fader/Switch/Button is non-nil, matching Kind.
type ControlDescriptor struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Kind   ControlKind `json:"kind"`
	Bounds Rect        `json:"bounds"`

	// Value is freely mutated by interaction; InitialValue is the reset
	// baseline and only moves through the overlay lifecycle.
	Value        float64 `json:"value"`
	InitialValue float64 `json:"initial_value"`

	Knob   *KnobData   `json:"knob,omitempty"`
	Fader  *FaderData  `json:"fader,omitempty"`
	Switch *SwitchData `json:"switch,omitempty"`
	Button *SwitchData `json:"button,omitempty"`

	ImagePath string  `json:"image_path,omitempty"`
	Image     *Bitmap `json:"-"`
}

// NewControl creates a control with kind-specific defaults and
// value = initialValue = 0.
func NewControl(kind ControlKind, label string, bounds Rect) *ControlDescriptor {
	c := &ControlDescriptor{
		ID:     SlugID(label),
		Label:  label,
		Kind:   kind,
		Bounds: bounds,
	}

	switch kind {
	case ControlKindKnob:
		c.Knob = &KnobData{StartAngle: 0, EndAngle: 360}
	case ControlKindFader:
		c.Fader = &FaderData{Orientation: "vertical", Length: 100}
	case ControlKindSwitch:
		c.Switch = &SwitchData{}
	case ControlKindButton:
		c.Button = &SwitchData{}
	}

	return c
}

// optionState returns the switch-style state for switches and buttons,
// nil for every other kind.
func (c *ControlDescriptor) optionState() *SwitchData {
	switch c.Kind {
	case ControlKindSwitch:
		return c.Switch
	case ControlKindButton:
		return c.Button
	default:
		return nil
	}
}

// SetValue updates the control value. For switches and buttons the value is
// clamped onto a valid option index so CurrentIndex stays in bounds and
// Value mirrors it.
func (c *ControlDescriptor) SetValue(v float64) {
	if st := c.optionState(); st != nil && len(st.Options) > 0 {
		idx := int(v)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(st.Options) {
			idx = len(st.Options) - 1
		}
		st.CurrentIndex = idx
		c.Value = float64(idx)
		return
	}
	c.Value = v
}

// Clone returns a deep copy of the control. The decoded bitmap handle is
// shared; everything else is independent.
func (c *ControlDescriptor) Clone() *ControlDescriptor {
	dup := *c
	if c.Knob != nil {
		k := *c.Knob
		k.Steps = append([]float64(nil), c.Knob.Steps...)
		dup.Knob = &k
	}
	if c.Fader != nil {
		f := *c.Fader
		dup.Fader = &f
	}
	if c.Switch != nil {
		s := *c.Switch
		s.Options = append([]ControlOption(nil), c.Switch.Options...)
		dup.Switch = &s
	}
	if c.Button != nil {
		b := *c.Button
		b.Options = append([]ControlOption(nil), c.Button.Options...)
		dup.Button = &b
	}
	return &dup
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// SlugID derives a stable control id from a human label.
func SlugID(label string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(label), "-")
	return strings.Trim(slug, "-")
}

// ParseControlKind maps a schema type string onto a kind,
// case-insensitively. Unknown strings map to Button rather than rejecting
// the schema.
func ParseControlKind(s string) ControlKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "knob":
		return ControlKindKnob
	case "fader":
		return ControlKindFader
	case "switch":
		return ControlKindSwitch
	default:
		return ControlKindButton
	}
}
