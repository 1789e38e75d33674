// Package spring provides the damped-harmonic-oscillator integrator that
// drives every animated value.
//
// The package is pure: nothing in it holds state between calls.
//
//   - [Config]: stiffness, damping, mass and rest thresholds
//   - [Step]: one semi-implicit Euler step at the fixed [Dt] cadence
//   - [Stepper]: alternative solvers over the same spring model
//   - [Classify]: underdamped / critically damped / overdamped regimes
//   - [Settle]: run a spring from rest until it settles
//
// # Example
//
//	cfg := spring.DefaultConfig()
//	pos, vel := 0.0, 0.0
//	for {
//		var rest bool
//		pos, vel, rest = spring.Step(pos, vel, 100, cfg)
//		if rest {
//			break
//		}
//	}
//
// # Timestep
//
// Every call advances exactly 1/60 s. Displays refreshing faster than 60 Hz
// call Step more often and so animate faster in wall-clock time; this is
// kept as-is so settling times stay identical across hosts.
package spring
