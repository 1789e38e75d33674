package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dynmotion/internal/config"
	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
	"github.com/san-kum/dynmotion/internal/spring"
	"github.com/san-kum/dynmotion/internal/trail"
	"github.com/san-kum/dynmotion/internal/viz"
)

const (
	stripWidth   = 60
	historyLen   = 120
	targetNudge  = 10.0
	stiffnessMul = 1.25
)

type Options struct {
	Spring  spring.Config
	Stepper spring.Stepper
	From    float64
	To      float64
	// Trail is the number of followers chasing the driver; zero hides it.
	Trail int
	Theme string
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frame.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model previews a driver, and optionally a trail following it, one
// scheduler frame per bubbletea tick.
type Model struct {
	clock  *frame.Manual
	driver *motion.Driver
	trail  *trail.Trail

	from, to float64
	lo, hi   float64
	presets  []string
	preset   int

	history  []float64
	rests    int
	theme    viz.Theme
	styles   viz.Styles
	progress progress.Model
	width    int
}

func New(opts Options) (*Model, error) {
	clock := frame.NewManual()
	cfg := motion.DefaultConfig().WithSpring(opts.Spring.WithDefaults())
	cfg.Stepper = opts.Stepper

	m := &Model{
		clock:   clock,
		from:    opts.From,
		to:      opts.To,
		presets: config.ListPresets(),
		preset:  -1,
		theme:   viz.GetTheme(opts.Theme),
		width:   stripWidth,
	}
	m.styles = m.theme.Styles()
	m.progress = progress.New(
		progress.WithScaledGradient(m.theme.SeriesColor(0), m.theme.SeriesColor(1)),
		progress.WithoutPercentage(),
	)
	m.progress.Width = stripWidth
	m.setRange()

	d, err := motion.New(clock, opts.From, opts.From, cfg)
	if err != nil {
		return nil, err
	}
	d.On(motion.EventRest, func() { m.rests++ })
	d.Subscribe(func(v float64) { m.record(v) })
	m.driver = d

	if opts.Trail > 0 {
		tr, err := trail.New(clock, opts.Trail, opts.From, cfg)
		if err != nil {
			d.Destroy()
			return nil, err
		}
		d.Subscribe(func(v float64) { tr.Set(v) })
		m.trail = tr
	}
	return m, nil
}

func (m *Model) Init() tea.Cmd {
	m.driver.Set(m.to, true)
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-30, 20), 120)
		m.progress.Width = m.width
	case tickMsg:
		m.clock.Step()
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.Close()
		return tea.Quit
	case " ", "enter":
		m.from, m.to = m.to, m.from
		m.driver.Set(m.to, true)
	case "left", "h":
		m.nudge(-targetNudge)
	case "right", "l":
		m.nudge(targetNudge)
	case "p":
		if m.driver.IsPaused() {
			m.driver.Resume()
		} else {
			m.driver.Pause()
		}
	case "r":
		m.driver.Reset()
		m.history = m.history[:0]
		if m.trail != nil {
			m.trail.Jump(m.driver.Value())
		}
	case "j":
		m.driver.Jump(m.to)
	case "s":
		m.cyclePreset()
	case "+", "=":
		m.scaleStiffness(stiffnessMul)
	case "-", "_":
		m.scaleStiffness(1 / stiffnessMul)
	case "t":
		m.theme = m.theme.Next()
		m.styles = m.theme.Styles()
	}
	return nil
}

func (m *Model) nudge(by float64) {
	m.to += by
	m.setRange()
	m.driver.Set(m.to, true)
}

func (m *Model) setRange() {
	m.lo, m.hi = math.Min(m.from, m.to), math.Max(m.from, m.to)
	if m.hi-m.lo < 1 {
		m.hi = m.lo + 1
	}
	pad := (m.hi - m.lo) * 0.25
	m.lo -= pad
	m.hi += pad
}

func (m *Model) cyclePreset() {
	m.preset = (m.preset + 1) % len(m.presets)
	p, _ := config.GetPreset(m.presets[m.preset])
	m.applySpring(p)
}

func (m *Model) scaleStiffness(f float64) {
	cfg := m.driver.Spring()
	cfg.Stiffness *= f
	m.applySpring(cfg)
}

func (m *Model) applySpring(cfg spring.Config) {
	if err := m.driver.SetSpring(cfg); err != nil {
		motion.Logger().Warn("spring rejected", "err", err)
	}
}

func (m *Model) record(v float64) {
	m.history = append(m.history, v)
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
}

// Close destroys the driver and trail.
func (m *Model) Close() {
	if m.trail != nil {
		m.trail.Destroy()
	}
	m.driver.Destroy()
}

// Closeness is how near the value is to its target, 1 when there.
func (m *Model) Closeness() float64 {
	span := math.Abs(m.to - m.from)
	if span == 0 {
		return 1
	}
	return 1 - math.Min(1, math.Abs(m.driver.Target()-m.driver.Value())/span)
}

func (m *Model) View() string {
	s := m.styles
	var b strings.Builder

	cfg := m.driver.Spring()
	name := "custom"
	if m.preset >= 0 {
		name = m.presets[m.preset]
	}
	b.WriteString(s.Title.Render("dynmotion") + "  " + s.Subtle.Render(name) + "  " + s.Regime(spring.Classify(cfg)) + "\n\n")

	b.WriteString(viz.Strip([]float64{m.driver.Value()}, m.lo, m.hi, m.width) + "\n")
	if m.trail != nil {
		b.WriteString(viz.Strip(m.trail.Values(), m.lo, m.hi, m.width) + "\n")
	}
	b.WriteString(m.progress.ViewAs(m.Closeness()) + "\n\n")

	chart := viz.SparklineChart(m.history, m.width)
	stats := lipgloss.JoinVertical(lipgloss.Left,
		s.Field("value", m.driver.Value()),
		s.Field("velocity", m.driver.Velocity()),
		s.Field("target", m.driver.Target()),
		s.Field("stiffness", cfg.Stiffness),
		s.Field("damping", cfg.Damping),
		s.Field("ratio", spring.DampingRatio(cfg)),
		s.Field("status", m.status()),
		s.Field("rests", m.rests),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.Panel.Render(chart), "  ", stats) + "\n\n")

	b.WriteString(s.KeyHint.Render("space flip  h/l nudge  p pause  r reset  j jump  s preset  +/- stiffness  t theme  q quit"))
	return b.String()
}

func (m *Model) status() string {
	switch {
	case m.driver.IsPaused():
		return m.styles.Paused.Render("paused")
	case m.driver.IsAnimating():
		return m.styles.Running.Render("running")
	}
	return m.styles.Settled.Render("at rest")
}

// Driver exposes the previewed driver.
func (m *Model) Driver() *motion.Driver { return m.driver }

// Run opens the preview full screen until the user quits.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Close()
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}
