package spring

import (
	"fmt"
	"sort"
)

var steppers = map[string]func() Stepper{
	"euler":    func() Stepper { return NewSemiImplicit() },
	"rk4":      func() Stepper { return NewRK4() },
	"analytic": func() Stepper { return NewAnalytic() },
}

// Default returns the semi-implicit Euler stepper.
func Default() Stepper {
	return NewSemiImplicit()
}

// Lookup returns a fresh stepper by name. An empty name selects the default.
func Lookup(name string) (Stepper, error) {
	if name == "" {
		return Default(), nil
	}
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepper, name)
	}
	return fn(), nil
}

func ListSteppers() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
