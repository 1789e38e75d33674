package orchestrate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

var ErrUnknownPattern = errors.New("orchestrate: unknown stagger pattern")

// DefaultStep is the gap between neighbouring delays when Params.Step is unset.
const DefaultStep = 0.05

// Params tunes the delay patterns. Fields a pattern does not use are ignored.
type Params struct {
	// Step is the delay, in seconds, between adjacent ranks.
	Step float64 `yaml:"step"`
	// Columns is the grid width for Grid and Spiral; zero means ceil(sqrt(n)).
	Columns int `yaml:"columns"`
	// Origin is the index Grid measures distance from.
	Origin int `yaml:"origin"`
	// Frequency is the number of half waves Wave spans across the run.
	Frequency float64 `yaml:"frequency"`
	Seed      uint64  `yaml:"seed"`
}

func (p Params) step() float64 {
	if p.Step <= 0 || math.IsNaN(p.Step) || math.IsInf(p.Step, 0) {
		return DefaultStep
	}
	return p.Step
}

// Pattern maps a target count to one delay in seconds per target. Every
// result has length count, with finite non-negative entries.
type Pattern func(count int, p Params) []float64

var patterns = map[string]Pattern{
	"linear":     Linear,
	"reverse":    Reverse,
	"center-out": CenterOut,
	"edge-in":    EdgeIn,
	"wave":       Wave,
	"grid":       Grid,
	"spiral":     Spiral,
	"random":     Random,
}

func LookupPattern(name string) (Pattern, error) {
	fn, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPattern, name)
	}
	return fn, nil
}

func ListPatterns() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Delays looks up a pattern by name and applies it.
func Delays(name string, count int, p Params) ([]float64, error) {
	fn, err := LookupPattern(name)
	if err != nil {
		return nil, err
	}
	return fn(count, p), nil
}

func ranked(count int, step float64, rank func(i int) float64) []float64 {
	if count <= 0 {
		return []float64{}
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = rank(i) * step
	}
	return out
}

func Linear(count int, p Params) []float64 {
	return ranked(count, p.step(), func(i int) float64 { return float64(i) })
}

func Reverse(count int, p Params) []float64 {
	return ranked(count, p.step(), func(i int) float64 { return float64(count - 1 - i) })
}

// CenterOut starts from the middle and spreads to both edges.
func CenterOut(count int, p Params) []float64 {
	mid := float64(count-1) / 2
	return ranked(count, p.step(), func(i int) float64 { return math.Abs(float64(i) - mid) })
}

// EdgeIn starts at both edges and meets in the middle.
func EdgeIn(count int, p Params) []float64 {
	mid := float64(count-1) / 2
	return ranked(count, p.step(), func(i int) float64 { return mid - math.Abs(float64(i)-mid) })
}

// Wave eases delays along a cosine so the run bunches up at its ends. The
// total spread matches Linear.
func Wave(count int, p Params) []float64 {
	if count <= 1 {
		return ranked(count, 0, func(int) float64 { return 0 })
	}
	freq := p.Frequency
	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		freq = 1
	}
	span := float64(count - 1)
	return ranked(count, p.step(), func(i int) float64 {
		return span * (1 - math.Cos(math.Pi*freq*float64(i)/span)) / 2
	})
}

func gridColumns(count, cols int) int {
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(count))))
	}
	return max(cols, 1)
}

// Grid lays targets out row-major and delays each by its distance from the
// origin cell.
func Grid(count int, p Params) []float64 {
	if count <= 0 {
		return []float64{}
	}
	cols := gridColumns(count, p.Columns)
	origin := min(max(p.Origin, 0), count-1)
	or, oc := origin/cols, origin%cols
	return ranked(count, p.step(), func(i int) float64 {
		return math.Hypot(float64(i/cols-or), float64(i%cols-oc))
	})
}

// Spiral walks the grid clockwise from the top-left corner inward; each
// target's delay is its position along that walk.
func Spiral(count int, p Params) []float64 {
	if count <= 0 {
		return []float64{}
	}
	cols := gridColumns(count, p.Columns)
	rows := (count + cols - 1) / cols

	rank := make([]int, count)
	top, bottom, left, right := 0, rows-1, 0, cols-1
	n := 0
	visit := func(r, c int) {
		if i := r*cols + c; i < count {
			rank[i] = n
			n++
		}
	}
	for top <= bottom && left <= right {
		for c := left; c <= right; c++ {
			visit(top, c)
		}
		for r := top + 1; r <= bottom; r++ {
			visit(r, right)
		}
		if top < bottom {
			for c := right - 1; c >= left; c-- {
				visit(bottom, c)
			}
		}
		if left < right {
			for r := bottom - 1; r > top; r-- {
				visit(r, left)
			}
		}
		top, bottom, left, right = top+1, bottom-1, left+1, right-1
	}
	return ranked(count, p.step(), func(i int) float64 { return float64(rank[i]) })
}

// Random spreads delays uniformly over the Linear span. The same seed always
// yields the same table.
func Random(count int, p Params) []float64 {
	if count <= 1 {
		return ranked(count, 0, func(int) float64 { return 0 })
	}
	r := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	span := float64(count - 1)
	return ranked(count, p.step(), func(int) float64 { return r.Float64() * span })
}
