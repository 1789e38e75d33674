// Package tune searches stiffness and damping grids for springs that reach
// rest quickly without overshooting more than allowed.
package tune

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/san-kum/dynmotion/internal/spring"
)

var ErrEmptyGrid = errors.New("tune: empty grid")

// Grid is the search space. Mass and the rest thresholds come from Base.
type Grid struct {
	Stiffness []float64
	Damping   []float64
	Base      spring.Config
}

// Goal bounds acceptable candidates. A zero MaxOvershoot means none at all.
type Goal struct {
	From, To     float64
	MaxOvershoot float64
	MaxSteps     int
}

type Result struct {
	Spring     spring.Config
	SettleTime float64
	Overshoot  float64
	Settled    bool
	Regime     spring.Regime
}

// Accepted reports whether r settled within the overshoot limit.
func (r Result) Accepted(g Goal) bool {
	return r.Settled && r.Overshoot <= g.MaxOvershoot+1e-9
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

type Searcher struct {
	stepper spring.Stepper
	workers int
}

func NewSearcher(stepper spring.Stepper, workers int) *Searcher {
	if stepper == nil {
		stepper = spring.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Searcher{stepper: stepper, workers: workers}
}

// Search evaluates every grid point concurrently. Results come back sorted
// best first: accepted before rejected, then by settle time, then by lower
// stiffness. Invalid grid points are skipped.
func (s *Searcher) Search(ctx context.Context, grid Grid, goal Goal) ([]Result, error) {
	if len(grid.Stiffness) == 0 || len(grid.Damping) == 0 {
		return nil, ErrEmptyGrid
	}
	if goal.MaxSteps <= 0 {
		goal.MaxSteps = spring.DefaultMaxSteps
	}
	base := grid.Base.WithDefaults()

	jobs := make(chan spring.Config)
	results := make([]Result, 0, len(grid.Stiffness)*len(grid.Damping))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cfg := range jobs {
				r, ok := s.evaluate(cfg, goal)
				if !ok {
					continue
				}
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, k := range grid.Stiffness {
		for _, c := range grid.Damping {
			cfg := base
			cfg.Stiffness, cfg.Damping = k, c
			select {
			case jobs <- cfg:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if aa, ba := a.Accepted(goal), b.Accepted(goal); aa != ba {
			return aa
		}
		if a.SettleTime != b.SettleTime {
			return a.SettleTime < b.SettleTime
		}
		if a.Spring.Stiffness != b.Spring.Stiffness {
			return a.Spring.Stiffness < b.Spring.Stiffness
		}
		return a.Spring.Damping < b.Spring.Damping
	})
	return results, nil
}

// Best returns the first accepted result.
func Best(results []Result, goal Goal) (Result, bool) {
	for _, r := range results {
		if r.Accepted(goal) {
			return r, true
		}
	}
	return Result{}, false
}

func (s *Searcher) evaluate(cfg spring.Config, goal Goal) (Result, bool) {
	if cfg.Validate() != nil {
		return Result{}, false
	}
	tr, err := spring.Settle(s.stepper, goal.From, 0, goal.To, cfg, goal.MaxSteps)
	if err != nil && !errors.Is(err, spring.ErrNotSettled) {
		return Result{}, false
	}
	settle := math.Inf(1)
	if tr.Settled {
		settle = tr.Duration()
	}
	return Result{
		Spring:     cfg,
		SettleTime: settle,
		Overshoot:  tr.Overshoot(),
		Settled:    tr.Settled,
		Regime:     spring.Classify(cfg),
	}, true
}
