package spring

import "math"

// Dt is the fixed integration timestep: one 60 Hz display frame.
const Dt = 1.0 / 60.0

// Step advances the spring by one frame with semi-implicit Euler and reports
// whether the resulting state is at rest.
func Step(position, velocity, target float64, cfg Config) (float64, float64, bool) {
	displacement := target - position
	springForce := cfg.Stiffness * displacement
	dampingForce := cfg.Damping * velocity
	acceleration := (springForce - dampingForce) / cfg.Mass

	// velocity before position
	velocity += acceleration * Dt
	position += velocity * Dt

	return position, velocity, AtRest(position, velocity, target, cfg)
}

// AtRest requires both the displacement and the speed to be inside their
// thresholds.
func AtRest(position, velocity, target float64, cfg Config) bool {
	return math.Abs(target-position) <= cfg.RestDelta && math.Abs(velocity) <= cfg.RestSpeed
}

// SemiImplicit is the default Stepper; it delegates to Step.
type SemiImplicit struct{}

func NewSemiImplicit() *SemiImplicit {
	return &SemiImplicit{}
}

func (s *SemiImplicit) Name() string { return "euler" }

func (s *SemiImplicit) Step(position, velocity, target float64, cfg Config) (float64, float64, bool) {
	return Step(position, velocity, target, cfg)
}
