package gear

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OverlayManager handles the instance overlay lifecycle: stamping a
// descriptor as a personalized instance of a catalog unit, and resetting an
// instance back to its snapshot.
//
// There are deliberately two reset flavors. ResetValuesOnly restores values
// and keeps the instance identity; ResetAndDetach additionally clears it.
// Both exist at the product level, so both are exposed here by name.
type OverlayManager struct {
	logger *zap.Logger
}

func NewOverlayManager(logger *zap.Logger) *OverlayManager {
	return &OverlayManager{logger: logger}
}

// CreateInstance stamps d as an instance of sourceUnitID with a fresh,
// globally unique instance id. If d was already an instance only the
// identity fields change; otherwise the current control values become the
// reset baseline.
func (m *OverlayManager) CreateInstance(d *GearDescriptor, sourceUnitID string) {
	wasInstance := d.IsInstance()

	if !wasInstance {
		for _, c := range d.Controls {
			c.InitialValue = c.Value
		}
	}

	d.SourceUnitID = sourceUnitID
	d.InstanceID = uuid.NewString()

	m.logger.Debug("instance created",
		zap.String("unit_id", d.UnitID),
		zap.String("source_unit_id", sourceUnitID),
		zap.String("instance_id", d.InstanceID),
		zap.Bool("was_instance", wasInstance))
}

// ResetValuesOnly restores every control to its snapshot value, keeping the
// instance identity intact. No-op on a non-instance.
func (m *OverlayManager) ResetValuesOnly(d *GearDescriptor) {
	if !d.IsInstance() {
		return
	}
	resetControls(d)
}

// ResetAndDetach restores every control to its snapshot value and clears
// the instance identity, turning d back into a plain catalog descriptor.
// No-op on a non-instance.
func (m *OverlayManager) ResetAndDetach(d *GearDescriptor) {
	if !d.IsInstance() {
		return
	}
	resetControls(d)
	d.InstanceID = ""
	d.SourceUnitID = ""
}

func resetControls(d *GearDescriptor) {
	for _, c := range d.Controls {
		c.SetValue(c.InitialValue)
	}
}
