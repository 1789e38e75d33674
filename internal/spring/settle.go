package spring

import "fmt"

// DefaultMaxSteps bounds Settle at one simulated minute.
const DefaultMaxSteps = 3600

// Trajectory is the frame-by-frame record of one settled spring.
type Trajectory struct {
	Positions  []float64
	Velocities []float64
	Steps      int
	Settled    bool
}

// Duration returns the simulated time the trajectory covers.
func (t *Trajectory) Duration() float64 {
	return float64(t.Steps) * Dt
}

// At returns the position after n frames, holding the last sample once the
// trajectory ends.
func (t *Trajectory) At(n int) float64 {
	if len(t.Positions) == 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	if n >= len(t.Positions) {
		n = len(t.Positions) - 1
	}
	return t.Positions[n]
}

// Settle runs stepper from (from, velocity) toward to until rest or maxSteps.
// Positions[0] is the initial state. A non-settling run returns the partial
// trajectory together with ErrNotSettled.
func Settle(stepper Stepper, from, velocity, to float64, cfg Config, maxSteps int) (*Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stepper == nil {
		stepper = Default()
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	tr := &Trajectory{
		Positions:  make([]float64, 0, 64),
		Velocities: make([]float64, 0, 64),
	}
	x, v := from, velocity
	tr.Positions = append(tr.Positions, x)
	tr.Velocities = append(tr.Velocities, v)

	if AtRest(x, v, to, cfg) {
		tr.Settled = true
		return tr, nil
	}

	for i := 0; i < maxSteps; i++ {
		var rest bool
		x, v, rest = stepper.Step(x, v, to, cfg)
		tr.Steps++
		if rest {
			x, v = to, 0
		}
		tr.Positions = append(tr.Positions, x)
		tr.Velocities = append(tr.Velocities, v)
		if rest {
			tr.Settled = true
			return tr, nil
		}
	}

	return tr, fmt.Errorf("%w after %d steps", ErrNotSettled, maxSteps)
}

// Overshoot is how far the trajectory went past its final value, as a
// fraction of the travel distance. A run that never crossed reports 0.
func (t *Trajectory) Overshoot() float64 {
	if len(t.Positions) < 2 {
		return 0
	}
	from, to := t.Positions[0], t.Positions[len(t.Positions)-1]
	dist := to - from
	if dist == 0 {
		return 0
	}
	peak := 0.0
	for _, x := range t.Positions {
		if past := (x - to) / dist; past > peak {
			peak = past
		}
	}
	return peak
}
