package spring

import "math"

// CriticalTolerance is how far the damping ratio may sit from 1 and still be
// classified as critically damped.
const CriticalTolerance = 0.001

// Regime is the qualitative behavior of a spring.
type Regime int

const (
	Underdamped Regime = iota
	CriticallyDamped
	Overdamped
)

func (r Regime) String() string {
	switch r {
	case Underdamped:
		return "underdamped"
	case CriticallyDamped:
		return "critically damped"
	case Overdamped:
		return "overdamped"
	default:
		return "unknown"
	}
}

// Period returns the undamped natural period in seconds.
func Period(cfg Config) float64 {
	return 2 * math.Pi * math.Sqrt(cfg.Mass/cfg.Stiffness)
}

// AngularFrequency returns the undamped natural angular frequency in rad/s.
func AngularFrequency(cfg Config) float64 {
	return math.Sqrt(cfg.Stiffness / cfg.Mass)
}

func DampingRatio(cfg Config) float64 {
	return cfg.Damping / (2 * math.Sqrt(cfg.Stiffness*cfg.Mass))
}

func Classify(cfg Config) Regime {
	ratio := DampingRatio(cfg)
	switch {
	case math.Abs(ratio-1) <= CriticalTolerance:
		return CriticallyDamped
	case ratio < 1:
		return Underdamped
	default:
		return Overdamped
	}
}

// Energy returns kinetic plus spring potential energy relative to target.
func Energy(pos, vel, target float64, cfg Config) float64 {
	dx := pos - target
	return 0.5*cfg.Mass*vel*vel + 0.5*cfg.Stiffness*dx*dx
}
