package spring

import "math"

const (
	DefaultStiffness = 100.0
	DefaultDamping   = 10.0
	DefaultMass      = 1.0
	DefaultRestSpeed = 0.01
	DefaultRestDelta = 0.01
)

// Config holds the physical constants of one spring.
type Config struct {
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Mass      float64 `yaml:"mass"`
	RestSpeed float64 `yaml:"rest_speed"`
	RestDelta float64 `yaml:"rest_delta"`
}

func DefaultConfig() Config {
	return Config{
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
		Mass:      DefaultMass,
		RestSpeed: DefaultRestSpeed,
		RestDelta: DefaultRestDelta,
	}
}

// WithDefaults fills zero fields from DefaultConfig. Damping is left alone
// when any other field was set, since zero damping is a legal spring.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.Stiffness == 0 {
		c.Stiffness = d.Stiffness
	}
	if c.Mass == 0 {
		c.Mass = d.Mass
	}
	if c.RestSpeed == 0 {
		c.RestSpeed = d.RestSpeed
	}
	if c.RestDelta == 0 {
		c.RestDelta = d.RestDelta
	}
	return c
}

func (c Config) Validate() error {
	checks := []struct {
		field string
		value float64
		ok    bool
	}{
		{"stiffness", c.Stiffness, c.Stiffness > 0},
		{"mass", c.Mass, c.Mass > 0},
		{"damping", c.Damping, c.Damping >= 0},
		{"rest_speed", c.RestSpeed, c.RestSpeed >= 0},
		{"rest_delta", c.RestDelta, c.RestDelta >= 0},
	}
	for _, chk := range checks {
		if math.IsNaN(chk.value) || math.IsInf(chk.value, 0) || !chk.ok {
			return &ConfigError{Field: chk.field, Value: chk.value}
		}
	}
	return nil
}
