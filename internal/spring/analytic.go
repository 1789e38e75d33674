package spring

import "github.com/charmbracelet/harmonica"

// Analytic advances the spring with harmonica's closed-form damped
// oscillator solution, parameterized from the same stiffness, damping and
// mass.
type Analytic struct {
	fps int
}

func NewAnalytic() *Analytic {
	return &Analytic{fps: int(1 / Dt)}
}

func (a *Analytic) Name() string { return "analytic" }

func (a *Analytic) Step(position, velocity, target float64, cfg Config) (float64, float64, bool) {
	s := harmonica.NewSpring(harmonica.FPS(a.fps), AngularFrequency(cfg), DampingRatio(cfg))
	position, velocity = s.Update(position, velocity, target)
	return position, velocity, AtRest(position, velocity, target, cfg)
}
