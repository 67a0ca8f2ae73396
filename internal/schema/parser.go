package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/gear"
)

// Wire shape of a gear schema document. Controls is a pointer so that an
// absent array (leave existing controls alone) is distinguishable from a
// present-but-empty one (clear them).
type document struct {
	FaceplateImage string        `json:"faceplateImage"`
	ThumbnailImage string        `json:"thumbnailImage"`
	Controls       *[]controlDoc `json:"controls"`
}

type controlDoc struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Type        string      `json:"type"`
	Value       float64     `json:"value"`
	ImagePath   string      `json:"imagePath"`
	Frame       gear.Rect   `json:"frame"`
	StartAngle  *float64    `json:"startAngle"`
	EndAngle    *float64    `json:"endAngle"`
	Steps       []float64   `json:"steps"`
	Orientation string      `json:"orientation"`
	Length      float64     `json:"length"`
	Options     []optionDoc `json:"options"`
}

type optionDoc struct {
	Value float64   `json:"value"`
	Label string    `json:"label"`
	Frame gear.Rect `json:"frame"`
}

// Parse applies a fetched schema document to a descriptor. On any
// validation failure the descriptor is left untouched. When the document
// carries a controls array the existing control list is cleared and rebuilt
// in array order; each appended control's asset fetch is dispatched only
// after the append, so the in-flight fetch can resolve by index.
//
// Must run on the model loop.
func (p *Pipeline) Parse(data []byte, d *gear.GearDescriptor) error {
	if err := p.validator.Validate(data); err != nil {
		return err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Validation passed, so this only fires on truly odd input.
		return fmt.Errorf("%w: %v", ErrMalformedSchema, err)
	}

	if doc.FaceplateImage != "" {
		d.FaceplatePath = doc.FaceplateImage
		p.assets.FetchFaceplate(d)
	} else if doc.ThumbnailImage != "" {
		d.FaceplatePath = doc.ThumbnailImage
		d.ThumbnailPath = doc.ThumbnailImage
		p.assets.FetchFaceplate(d)
	}

	if doc.Controls == nil {
		return nil
	}

	d.Controls = nil
	seen := make(map[string]bool)

	for _, cd := range *doc.Controls {
		id := cd.ID
		if id == "" {
			id = gear.SlugID(cd.Label)
		}
		if seen[id] {
			// First occurrence wins; the duplicate is dropped, not fatal.
			p.logger.Debug("duplicate control id skipped",
				zap.String("unit_id", d.UnitID),
				zap.String("control_id", id))
			continue
		}
		seen[id] = true

		control := buildControl(id, cd)
		d.Controls = append(d.Controls, control)

		if control.ImagePath != "" {
			p.assets.FetchControlAsset(d, len(d.Controls)-1)
		}
	}

	return nil
}

func buildControl(id string, cd controlDoc) *gear.ControlDescriptor {
	kind := gear.ParseControlKind(cd.Type)
	control := gear.NewControl(kind, cd.Label, cd.Frame)
	control.ID = id
	control.ImagePath = cd.ImagePath

	switch kind {
	case gear.ControlKindKnob:
		if cd.StartAngle != nil {
			control.Knob.StartAngle = *cd.StartAngle
		}
		if cd.EndAngle != nil {
			control.Knob.EndAngle = *cd.EndAngle
		}
		if len(cd.Steps) > 0 {
			control.Knob.Steps = append([]float64(nil), cd.Steps...)
			control.Knob.CurrentStep = nearestStep(cd.Steps, cd.Value)
		}
	case gear.ControlKindFader:
		if cd.Orientation != "" {
			control.Fader.Orientation = cd.Orientation
		}
		if cd.Length > 0 {
			control.Fader.Length = cd.Length
		}
	case gear.ControlKindSwitch:
		control.Switch.Options = buildOptions(cd.Options)
	case gear.ControlKindButton:
		control.Button.Options = buildOptions(cd.Options)
	}

	// The schema's declared value becomes both the current value and the
	// reset baseline, even when the control belongs to an instance being
	// re-hydrated.
	control.SetValue(cd.Value)
	control.InitialValue = control.Value

	return control
}

func buildOptions(docs []optionDoc) []gear.ControlOption {
	options := make([]gear.ControlOption, 0, len(docs))
	for _, od := range docs {
		options = append(options, gear.ControlOption{
			Value: od.Value,
			Label: od.Label,
			Frame: od.Frame,
		})
	}
	return options
}

func nearestStep(steps []float64, value float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, s := range steps {
		if dist := math.Abs(s - value); dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
