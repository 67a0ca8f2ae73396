package gear

// GearDescriptor describes one catalog unit or a personalized instance of
// one. Identity is UnitID plus InstanceID; value equality is meaningless
// for identity purposes.
type GearDescriptor struct {
	UnitID   string   `json:"unit_id"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// InstanceID and SourceUnitID are set together or not at all:
	// instance-ness is atomic across both fields.
	InstanceID   string `json:"instance_id,omitempty"`
	SourceUnitID string `json:"source_unit_id,omitempty"`

	Controls []*ControlDescriptor `json:"controls"`

	SchemaPath    string `json:"schema_path,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	FaceplatePath string `json:"faceplate_path,omitempty"`

	Faceplate *Bitmap `json:"-"`
}

// IsInstance reports whether this descriptor is a personalized copy of a
// catalog unit.
func (d *GearDescriptor) IsInstance() bool {
	return d.InstanceID != ""
}

// ControlByID returns the control with the given id and its index, or
// (nil, -1).
func (d *GearDescriptor) ControlByID(id string) (*ControlDescriptor, int) {
	for i, c := range d.Controls {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// Clone returns a deep copy of the descriptor with independent controls.
// Decoded bitmaps are shared between the copies.
func (d *GearDescriptor) Clone() *GearDescriptor {
	dup := *d
	dup.Tags = append([]string(nil), d.Tags...)
	dup.Controls = make([]*ControlDescriptor, 0, len(d.Controls))
	for _, c := range d.Controls {
		dup.Controls = append(dup.Controls, c.Clone())
	}
	return &dup
}
