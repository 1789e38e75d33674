package orchestrate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/group"
	"github.com/san-kum/dynmotion/internal/motion"
)

var (
	// ErrTargetMismatch is returned when from and to are different variants
	// or structured targets disagree on keys.
	ErrTargetMismatch = errors.New("orchestrate: from and to targets do not match")

	// ErrDelayCount is returned when a delay table does not cover every target.
	ErrDelayCount = errors.New("orchestrate: delay count does not match targets")
)

// Animation is anything with a spring-style lifecycle. *motion.Driver,
// *group.Group and *Composite implement it.
type Animation interface {
	Start()
	Stop()
	Finished() *motion.Completion
	Destroy()
}

// UnstartedFactory builds an idle animation; the caller starts it. It is
// invoked lazily so it can read live state left by earlier animations.
type UnstartedFactory func() Animation

// StartedFactory builds an animation for one target and starts it itself.
type StartedFactory[T any] func(target T) Animation

// Run starts a and returns its completion.
func Run(a Animation) *motion.Completion {
	a.Start()
	return a.Finished()
}

// Animate builds an idle animation from one target variant to another: a
// Driver for scalars, a group for structured targets.
func Animate(sched frame.Scheduler, from, to motion.Target, cfg motion.Config) (Animation, error) {
	if motion.KindOf(from) != motion.KindOf(to) {
		return nil, ErrTargetMismatch
	}

	switch f := from.(type) {
	case motion.Scalar:
		return motion.New(sched, float64(f), float64(to.(motion.Scalar)), cfg)
	case motion.Structured:
		t := to.(motion.Structured)
		if !sameKeys(f, t) {
			return nil, fmt.Errorf("%w: keys %v vs %v", ErrTargetMismatch, sortedKeys(f), sortedKeys(t))
		}
		g, err := group.New(sched, f, cfg, nil)
		if err != nil {
			return nil, err
		}
		return &groupAnimation{Group: g, to: t}, nil
	}
	return nil, ErrTargetMismatch
}

// groupAnimation starts a group by retargeting it, so Start means "go to".
type groupAnimation struct {
	*group.Group
	to motion.Structured
}

func (a *groupAnimation) Start() {
	_ = a.Group.Set(a.to, nil)
}

func sameKeys(a, b motion.Structured) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(s motion.Structured) []string {
	keys := s.Keys()
	sort.Strings(keys)
	return keys
}
