package spring

// Stepper advances one spring by one fixed Dt frame.
type Stepper interface {
	Name() string
	Step(position, velocity, target float64, cfg Config) (newPosition, newVelocity float64, atRest bool)
}
