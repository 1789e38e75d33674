package timeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/san-kum/dynmotion/internal/spring"
)

// curve is the value of one property over a track's local time.
type curve interface {
	at(tau float64) float64
	duration() float64
}

// springCurve holds a precomputed settle trajectory; frame n of it is the
// value after n fixed steps.
type springCurve struct {
	traj *spring.Trajectory
}

func newSpringCurve(stepper spring.Stepper, from, to float64, cfg spring.Config) (*springCurve, error) {
	traj, err := spring.Settle(stepper, from, 0, to, cfg, spring.DefaultMaxSteps)
	if err != nil {
		return nil, err
	}
	return &springCurve{traj: traj}, nil
}

func (c *springCurve) at(tau float64) float64 {
	return c.traj.At(frameIndex(tau))
}

func (c *springCurve) duration() float64 {
	return c.traj.Duration()
}

// frameIndex is floor(tau*60), tolerant of accumulated float error right
// below a frame boundary.
func frameIndex(tau float64) int {
	if tau <= 0 {
		return 0
	}
	return int(math.Floor(tau/spring.Dt + 1e-9))
}

// easeCurve evaluates a gween tween by absolute time.
type easeCurve struct {
	tween    *gween.Tween
	from, to float64
	dur      float64
}

func newEaseCurve(from, to, dur float64, fn ease.TweenFunc) *easeCurve {
	return &easeCurve{
		tween: gween.New(float32(from), float32(to), float32(dur), fn),
		from:  from,
		to:    to,
		dur:   dur,
	}
}

func (c *easeCurve) at(tau float64) float64 {
	if tau <= 0 {
		return c.from
	}
	if tau >= c.dur {
		return c.to
	}
	v, _ := c.tween.Set(float32(tau))
	return float64(v)
}

func (c *easeCurve) duration() float64 { return c.dur }

var eases = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"out-back":     ease.OutBack,
	"out-elastic":  ease.OutElastic,
	"out-bounce":   ease.OutBounce,
}

func LookupEase(name string) (ease.TweenFunc, error) {
	fn, ok := eases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEase, name)
	}
	return fn, nil
}

func ListEases() []string {
	names := make([]string, 0, len(eases))
	for name := range eases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fmtSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64) + "s"
}
