package config

import (
	"sort"

	"github.com/san-kum/dynmotion/internal/spring"
)

// Presets are named springs with the usual UI feel.
var Presets = map[string]spring.Config{
	"default":  {Stiffness: 170, Damping: 26, Mass: 1},
	"gentle":   {Stiffness: 120, Damping: 14, Mass: 1},
	"wobbly":   {Stiffness: 180, Damping: 12, Mass: 1},
	"stiff":    {Stiffness: 210, Damping: 20, Mass: 1},
	"slow":     {Stiffness: 280, Damping: 60, Mass: 1},
	"molasses": {Stiffness: 280, Damping: 120, Mass: 1},
}

// GetPreset returns the preset with default rest thresholds.
func GetPreset(name string) (spring.Config, bool) {
	p, ok := Presets[name]
	if !ok {
		return spring.Config{}, false
	}
	return p.WithDefaults(), true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
