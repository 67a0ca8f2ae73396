package rack

import "github.com/rackworks/gearrack/internal/gear"

// ControlValue is one control's saved state inside a preset.
type ControlValue struct {
	ControlID string  `json:"control_id"`
	Value     float64 `json:"value"`
}

// SlotSnapshot captures one occupied slot for preset persistence: unit and
// instance identity plus the control values. Bitmaps and schema-derived
// structure are not saved; loading re-hydrates through the schema pipeline.
type SlotSnapshot struct {
	Slot         int            `json:"slot"`
	UnitID       string         `json:"unit_id"`
	InstanceID   string         `json:"instance_id,omitempty"`
	SourceUnitID string         `json:"source_unit_id,omitempty"`
	Values       []ControlValue `json:"values,omitempty"`
}

// Snapshot is a whole-rack capture.
type Snapshot struct {
	Slots []SlotSnapshot `json:"slots"`
}

// Snapshot captures the current rack state. Must run on the model loop.
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot
	for _, slot := range e.slots {
		d := slot.Occupant
		if d == nil {
			continue
		}
		ss := SlotSnapshot{
			Slot:         slot.Index,
			UnitID:       d.UnitID,
			InstanceID:   d.InstanceID,
			SourceUnitID: d.SourceUnitID,
		}
		for _, c := range d.Controls {
			ss.Values = append(ss.Values, ControlValue{ControlID: c.ID, Value: c.Value})
		}
		snap.Slots = append(snap.Slots, ss)
	}
	return snap
}

// ApplyValues writes saved control values onto a descriptor by control id.
// Unknown ids are skipped; the schema is the authority on which controls
// exist.
func ApplyValues(d *gear.GearDescriptor, values []ControlValue) {
	for _, v := range values {
		if c, _ := d.ControlByID(v.ControlID); c != nil {
			c.SetValue(v.Value)
		}
	}
}
