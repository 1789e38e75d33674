package spring

// RK4 integrates the same spring with classical fourth-order Runge-Kutta over
// one Dt frame. It converges to the same rest state as SemiImplicit but
// follows a slightly different trajectory, so it is never the default.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(position, velocity, target float64, cfg Config) (float64, float64, bool) {
	accel := func(x, v float64) float64 {
		return (cfg.Stiffness*(target-x) - cfg.Damping*v) / cfg.Mass
	}

	dt := Dt
	k1x, k1v := velocity, accel(position, velocity)

	x2, v2 := position+dt*0.5*k1x, velocity+dt*0.5*k1v
	k2x, k2v := v2, accel(x2, v2)

	x3, v3 := position+dt*0.5*k2x, velocity+dt*0.5*k2v
	k3x, k3v := v3, accel(x3, v3)

	x4, v4 := position+dt*k3x, velocity+dt*k3v
	k4x, k4v := v4, accel(x4, v4)

	dt6 := dt / 6.0
	position += dt6 * (k1x + 2*k2x + 2*k3x + k4x)
	velocity += dt6 * (k1v + 2*k2v + 2*k3v + k4v)

	return position, velocity, AtRest(position, velocity, target, cfg)
}
