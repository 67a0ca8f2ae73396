package rack

import (
	"math"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/notify"
)

// DefaultSlotCount is the rack size when no layout is configured.
const DefaultSlotCount = 16

// Slot is one rack position. The occupant is exclusively owned by the slot
// while present; ownership transfers on placement, removal and swap. A
// descriptor is never referenced by two slots at once.
type Slot struct {
	Index    int                  `json:"index"`
	Bounds   gear.Rect            `json:"bounds"`
	Occupant *gear.GearDescriptor `json:"occupant,omitempty"`
}

// Engine owns the ordered slot sequence and performs drop-target
// resolution, swaps and instance-preserving placement. All methods must be
// called on the model loop.
type Engine struct {
	slots    []*Slot
	overlay  *gear.OverlayManager
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewEngine(layout []gear.Rect, overlay *gear.OverlayManager, notifier notify.Notifier, logger *zap.Logger) *Engine {
	if len(layout) == 0 {
		layout = DefaultLayout(DefaultSlotCount)
	}
	slots := make([]*Slot, len(layout))
	for i, bounds := range layout {
		slots[i] = &Slot{Index: i, Bounds: bounds}
	}
	return &Engine{
		slots:    slots,
		overlay:  overlay,
		notifier: notifier,
		logger:   logger,
	}
}

// DefaultLayout stacks n uniform slot rects vertically.
func DefaultLayout(n int) []gear.Rect {
	const (
		slotWidth  = 960
		slotHeight = 200
	)
	layout := make([]gear.Rect, n)
	for i := range layout {
		layout[i] = gear.Rect{X: 0, Y: float64(i * slotHeight), Width: slotWidth, Height: slotHeight}
	}
	return layout
}

func (e *Engine) SlotCount() int {
	return len(e.slots)
}

func (e *Engine) validIndex(i int) bool {
	return i >= 0 && i < len(e.slots)
}

// Slots returns the slot sequence. Callers must not mutate occupants off
// the model loop.
func (e *Engine) Slots() []*Slot {
	return e.slots
}

// Occupant returns the descriptor in the given slot, or nil.
func (e *Engine) Occupant(index int) *gear.GearDescriptor {
	if !e.validIndex(index) {
		return nil
	}
	return e.slots[index].Occupant
}

// Place installs a descriptor into a slot. When the slot currently holds an
// instance derived from the incoming descriptor's unit, the prior
// instance's controls survive the replacement: the incoming descriptor is
// re-stamped as an instance of that source, takes over the preserved
// control list, and the preserved values become the new reset baseline.
// That is what keeps user edits across a schema refresh.
func (e *Engine) Place(index int, d *gear.GearDescriptor) {
	if !e.validIndex(index) || d == nil {
		return
	}

	slot := e.slots[index]
	if prev := slot.Occupant; prev != nil && prev.IsInstance() && prev.SourceUnitID == d.UnitID {
		d.InstanceID = ""
		d.SourceUnitID = ""
		d.Controls = prev.Controls
		for _, c := range d.Controls {
			c.InitialValue = c.Value
		}
		e.overlay.CreateInstance(d, prev.SourceUnitID)
		e.logger.Debug("instance state preserved across placement",
			zap.Int("slot", index),
			zap.String("unit_id", d.UnitID))
	}

	slot.Occupant = d
	e.notifier.Publish(notify.GearInstalled(index))
}

// Swap exchanges the occupants of two slots. Degenerate calls (same index,
// out-of-range index, empty source slot) are no-ops. Both slots hold their
// new occupants before observers are told, so dependent layout reads a
// consistent rack.
func (e *Engine) Swap(a, b int) {
	if a == b || !e.validIndex(a) || !e.validIndex(b) {
		return
	}
	if e.slots[a].Occupant == nil {
		return
	}

	e.slots[a].Occupant, e.slots[b].Occupant = e.slots[b].Occupant, e.slots[a].Occupant
	e.notifier.Publish(notify.SlotsRearranged(a, b))
}

// RemoveAt detaches and discards the occupant. In-flight fetches for it are
// not cancelled; they self-discard at the identity gate.
func (e *Engine) RemoveAt(index int) {
	if !e.validIndex(index) || e.slots[index].Occupant == nil {
		return
	}
	e.slots[index].Occupant = nil
	e.notifier.Publish(notify.GearRemoved(index))
}

// FindNearestSlot resolves a drop point: the slot containing the point
// wins; otherwise the slot with the closest bounds center, ties going to
// the lowest index. Returns nil only when the rack has no slots.
func (e *Engine) FindNearestSlot(p gear.Point) *Slot {
	var nearest *Slot
	best := math.Inf(1)
	for _, slot := range e.slots {
		if slot.Bounds.Contains(p) {
			return slot
		}
		center := slot.Bounds.Center()
		dx, dy := center.X-p.X, center.Y-p.Y
		if dist := math.Sqrt(dx*dx + dy*dy); dist < best {
			best = dist
			nearest = slot
		}
	}
	return nearest
}

// SlotsDisplaying returns the indices of slots currently holding d.
// Exclusive slot ownership means at most one, but the fetch manager treats
// it as a list.
func (e *Engine) SlotsDisplaying(d *gear.GearDescriptor) []int {
	var out []int
	for _, slot := range e.slots {
		if slot.Occupant == d {
			out = append(out, slot.Index)
		}
	}
	return out
}

// ResetInstance resets the instance in a slot. With detach=false the
// instance identity survives (the rack-level reset); with detach=true the
// descriptor reverts to a plain catalog item.
func (e *Engine) ResetInstance(index int, detach bool) {
	d := e.Occupant(index)
	if d == nil || !d.IsInstance() {
		return
	}
	if detach {
		e.overlay.ResetAndDetach(d)
	} else {
		e.overlay.ResetValuesOnly(d)
	}
	e.notifier.Publish(notify.InstanceReset(index))
}

// ResetAllInstances applies the value-only reset to every occupied slot
// holding an instance. Identity is deliberately retained here.
func (e *Engine) ResetAllInstances() {
	for _, slot := range e.slots {
		if slot.Occupant != nil && slot.Occupant.IsInstance() {
			e.overlay.ResetValuesOnly(slot.Occupant)
			e.notifier.Publish(notify.InstanceReset(slot.Index))
		}
	}
}

// SetControlValue mutates one control value and announces the change.
func (e *Engine) SetControlValue(slotIndex, controlIndex int, value float64) bool {
	d := e.Occupant(slotIndex)
	if d == nil || controlIndex < 0 || controlIndex >= len(d.Controls) {
		return false
	}
	d.Controls[controlIndex].SetValue(value)
	e.notifier.Publish(notify.ControlChanged(slotIndex, controlIndex))
	return true
}
