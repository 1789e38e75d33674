package motion

import "github.com/san-kum/dynmotion/internal/spring"

// Config configures one Driver run.
type Config struct {
	spring.Config `yaml:",inline"`

	// Velocity seeds the initial velocity instead of starting from rest.
	Velocity *float64 `yaml:"velocity,omitempty"`

	// Clamp keeps every emitted value inside the current [from, to] range.
	Clamp bool `yaml:"clamp"`

	// AutoPlay starts the driver as soon as it is created.
	AutoPlay bool `yaml:"auto_play"`

	// Stepper overrides the semi-implicit Euler integrator.
	Stepper spring.Stepper `yaml:"-"`

	OnStart    func()        `yaml:"-"`
	OnUpdate   func(float64) `yaml:"-"`
	OnComplete func()        `yaml:"-"`
	OnRest     func()        `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{Config: spring.DefaultConfig()}
}

// WithSpring returns a copy of c using the given physics.
func (c Config) WithSpring(s spring.Config) Config {
	c.Config = s
	return c
}

// Event names the lifecycle notifications delivered through Driver.On.
type Event string

const (
	EventStart Event = "animationStart"
	EventEnd   Event = "animationEnd"
	EventRest  Event = "rest"
)

// Status is the driver lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusDestroyed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// State is the integrator state owned by one Driver.
type State struct {
	Position float64
	Velocity float64
	Target   float64
}
