// Package session coordinates the rack engine, overlay manager, schema
// pipeline and stores behind a call-and-wait facade. API handlers run on
// arbitrary goroutines; every model touch is marshalled onto the model loop
// and waited for, so handlers read consistent state without locks.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/catalog"
	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/notify"
	"github.com/rackworks/gearrack/internal/rack"
	"github.com/rackworks/gearrack/internal/schema"
	"github.com/rackworks/gearrack/internal/storage"
)

var (
	ErrUnknownUnit  = errors.New("unknown catalog unit")
	ErrInvalidSlot  = errors.New("invalid slot")
	ErrSessionDown  = errors.New("session is shut down")
	ErrInvalidValue = errors.New("invalid control target")
)

type Session struct {
	loop     *rack.Loop
	engine   *rack.Engine
	overlay  *gear.OverlayManager
	pipeline *schema.Pipeline
	catalog  *catalog.Catalog
	store    *storage.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

func New(loop *rack.Loop, engine *rack.Engine, overlay *gear.OverlayManager, pipeline *schema.Pipeline, cat *catalog.Catalog, store *storage.Store, notifier notify.Notifier, logger *zap.Logger) *Session {
	return &Session{
		loop:     loop,
		engine:   engine,
		overlay:  overlay,
		pipeline: pipeline,
		catalog:  cat,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// run executes f on the model loop and blocks until it finishes.
func (s *Session) run(f func()) error {
	done := make(chan struct{})
	if !s.loop.TryPost(func() {
		f()
		close(done)
	}) {
		return ErrSessionDown
	}
	<-done
	return nil
}

// PlaceUnit clones a catalog unit into a slot and starts schema hydration.
// With asInstance the clone is stamped as a personalized instance first.
// When the slot holds an instance of the same unit the engine preserves its
// controls across the replacement; the preserved values are re-applied once
// the schema parse completes, so re-hydration cannot clobber user edits.
func (s *Session) PlaceUnit(ctx context.Context, slotIndex int, unitID string, asInstance bool) error {
	d, ok := s.catalog.Unit(unitID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
	}
	if slotIndex < 0 || slotIndex >= s.engine.SlotCount() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slotIndex)
	}

	if err := s.run(func() {
		if asInstance {
			s.overlay.CreateInstance(d, unitID)
		}

		var preserved []rack.ControlValue
		if prev := s.engine.Occupant(slotIndex); prev != nil && prev.IsInstance() && prev.SourceUnitID == d.UnitID {
			for _, c := range prev.Controls {
				preserved = append(preserved, rack.ControlValue{ControlID: c.ID, Value: c.Value})
			}
		}

		s.engine.Place(slotIndex, d)

		var onComplete func()
		if len(preserved) > 0 {
			onComplete = func() {
				rack.ApplyValues(d, preserved)
			}
		}
		s.pipeline.FetchSchema(d, onComplete)
	}); err != nil {
		return err
	}

	if err := s.store.AddRecent(ctx, unitID); err != nil {
		s.logger.Warn("failed to record recent unit",
			zap.String("unit_id", unitID),
			zap.Error(err))
	}
	return nil
}

// Swap exchanges two slots. Degenerate swaps are silent no-ops, matching
// the engine.
func (s *Session) Swap(a, b int) error {
	return s.run(func() { s.engine.Swap(a, b) })
}

// Remove empties a slot. In-flight fetches for the removed descriptor
// self-discard at the identity gate.
func (s *Session) Remove(slotIndex int) error {
	return s.run(func() { s.engine.RemoveAt(slotIndex) })
}

// ResetSlot resets the instance in a slot; detach also clears its instance
// identity.
func (s *Session) ResetSlot(slotIndex int, detach bool) error {
	return s.run(func() { s.engine.ResetInstance(slotIndex, detach) })
}

// ResetAll applies the value-only reset to every instance in the rack.
func (s *Session) ResetAll() error {
	return s.run(func() { s.engine.ResetAllInstances() })
}

// SetControl writes one control value.
func (s *Session) SetControl(slotIndex, controlIndex int, value float64) error {
	var ok bool
	if err := s.run(func() {
		ok = s.engine.SetControlValue(slotIndex, controlIndex, value)
	}); err != nil {
		return err
	}
	if !ok {
		return ErrInvalidValue
	}
	return nil
}

// ResolveDropTarget maps a point to the slot index a drop should land in.
func (s *Session) ResolveDropTarget(p gear.Point) (int, error) {
	index := -1
	if err := s.run(func() {
		if slot := s.engine.FindNearestSlot(p); slot != nil {
			index = slot.Index
		}
	}); err != nil {
		return -1, err
	}
	if index < 0 {
		return -1, ErrInvalidSlot
	}
	return index, nil
}

// SlotView is a JSON-safe snapshot of one slot for API consumers.
type SlotView struct {
	Index    int                  `json:"index"`
	Bounds   gear.Rect            `json:"bounds"`
	Occupant *gear.GearDescriptor `json:"occupant,omitempty"`
}

// Rack returns a consistent view of every slot. Occupants are deep clones;
// callers may read them freely off the loop.
func (s *Session) Rack() ([]SlotView, error) {
	var views []SlotView
	err := s.run(func() {
		for _, slot := range s.engine.Slots() {
			view := SlotView{Index: slot.Index, Bounds: slot.Bounds}
			if slot.Occupant != nil {
				view.Occupant = slot.Occupant.Clone()
			}
			views = append(views, view)
		}
	})
	return views, err
}

// SavePreset snapshots the rack under a name.
func (s *Session) SavePreset(ctx context.Context, name string) error {
	var snap rack.Snapshot
	if err := s.run(func() { snap = s.engine.Snapshot() }); err != nil {
		return err
	}
	if err := s.store.SavePreset(ctx, name, snap); err != nil {
		return err
	}
	return s.run(func() { s.notifier.Publish(notify.PresetSaved(name)) })
}

// LoadPreset clears the rack, restores the saved slots, and re-hydrates
// every descriptor through the schema pipeline. Saved control values are
// applied once the schema parse completes, after the parse has reset the
// baseline; the saved instance identity is restored as-is.
func (s *Session) LoadPreset(ctx context.Context, name string) error {
	snap, err := s.store.LoadPreset(ctx, name)
	if err != nil {
		return err
	}

	return s.run(func() {
		for i := 0; i < s.engine.SlotCount(); i++ {
			s.engine.RemoveAt(i)
		}

		for _, ss := range snap.Slots {
			d, ok := s.catalog.Unit(ss.UnitID)
			if !ok {
				s.logger.Warn("preset references unknown unit, slot skipped",
					zap.String("preset", name),
					zap.String("unit_id", ss.UnitID),
					zap.Int("slot", ss.Slot))
				continue
			}
			// Instance-ness is atomic across both fields; a half-set
			// snapshot restores as a plain catalog item.
			if ss.InstanceID != "" && ss.SourceUnitID != "" {
				d.InstanceID = ss.InstanceID
				d.SourceUnitID = ss.SourceUnitID
			}

			values := ss.Values
			s.engine.Place(ss.Slot, d)
			s.pipeline.FetchSchema(d, func() {
				rack.ApplyValues(d, values)
			})
		}

		s.notifier.Publish(notify.PresetLoaded(name))
	})
}
