package timeline

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/spring"
)

// Script is the YAML form of a timeline.
type Script struct {
	Initial map[string]map[string]float64 `yaml:"initial"`
	Labels  []LabelSpec                   `yaml:"labels"`
	Tracks  []TrackSpec                   `yaml:"tracks"`
}

type LabelSpec struct {
	Name string   `yaml:"name"`
	At   *float64 `yaml:"at"`
}

// TrackSpec places a track with at most one of At, After or Label; none of
// them appends at the end.
type TrackSpec struct {
	Target string             `yaml:"target"`
	To     map[string]float64 `yaml:"to"`

	At     *float64 `yaml:"at,omitempty"`
	After  *float64 `yaml:"after,omitempty"`
	Label  string   `yaml:"label,omitempty"`
	Offset float64  `yaml:"offset,omitempty"`

	// Name adds a label at this track's start.
	Name string `yaml:"name,omitempty"`

	Ease     string         `yaml:"ease,omitempty"`
	Duration float64        `yaml:"duration,omitempty"`
	Spring   *spring.Config `yaml:"spring,omitempty"`
	Stepper  string         `yaml:"stepper,omitempty"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	s := &Script{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse timeline script: %w", err)
	}
	return s, nil
}

func (s *Script) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (t TrackSpec) position() (Position, error) {
	set := 0
	var p Position
	if t.At != nil {
		set++
		p = At(*t.At)
	}
	if t.After != nil {
		set++
		p = After(*t.After)
	}
	if t.Label != "" {
		set++
		p = Label(t.Label)
	}
	if set > 1 {
		return Position{}, fmt.Errorf("track %s: at, after and label are exclusive", t.Target)
	}
	return p.Offset(t.Offset), nil
}

func (t TrackSpec) options() ([]TrackOption, error) {
	var opts []TrackOption
	if t.Spring != nil {
		opts = append(opts, WithSpring(*t.Spring))
	}
	if t.Stepper != "" {
		st, err := spring.Lookup(t.Stepper)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStepper(st))
	}
	if t.Ease != "" {
		fn, err := LookupEase(t.Ease)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithEase(fn, t.Duration))
	}
	if t.Name != "" {
		opts = append(opts, Labelled(t.Name))
	}
	return opts, nil
}

// Build creates a timeline on sched from the script.
func (s *Script) Build(sched frame.Scheduler, cb Callbacks) (*Timeline, error) {
	tl := New(sched, cb)
	for _, target := range sortedTargets(s.Initial) {
		if err := tl.Set(target, s.Initial[target]); err != nil {
			return nil, err
		}
	}
	for _, l := range s.Labels {
		at := After(0)
		if l.At != nil {
			at = At(*l.At)
		}
		if err := tl.AddLabel(l.Name, at); err != nil {
			return nil, err
		}
	}
	for i, spec := range s.Tracks {
		pos, err := spec.position()
		if err != nil {
			return nil, err
		}
		opts, err := spec.options()
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		if _, err := tl.To(spec.Target, spec.To, pos, opts...); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}
	return tl, nil
}

func sortedTargets(m map[string]map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
