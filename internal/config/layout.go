package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rackworks/gearrack/internal/gear"
)

// Wire shape of the optional rack layout file. Slot bounds drive drop
// target resolution; without a layout file the engine falls back to a
// uniform vertical stack.
type layoutFile struct {
	Slots []layoutRect `yaml:"slots"`
}

type layoutRect struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// LoadLayout reads slot bounds from a YAML layout file. An empty path
// returns nil, meaning "use the default layout".
func LoadLayout(path string) ([]gear.Rect, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}

	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse layout file %s: %w", path, err)
	}
	if len(file.Slots) == 0 {
		return nil, fmt.Errorf("layout file %s defines no slots", path)
	}

	layout := make([]gear.Rect, len(file.Slots))
	for i, r := range file.Slots {
		if r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("layout file %s: slot %d has non-positive size", path, i)
		}
		layout[i] = gear.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return layout, nil
}
