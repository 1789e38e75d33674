package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dynmotion/internal/spring"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	KeyHint     lipgloss.Style
	Panel       lipgloss.Style
	Running     lipgloss.Style
	Paused      lipgloss.Style
	Settled     lipgloss.Style
	Underdamped lipgloss.Style
	Critical    lipgloss.Style
	Overdamped  lipgloss.Style
}

func (t Theme) Styles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Title),
		Subtle:  lipgloss.NewStyle().Foreground(t.Muted),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:   lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		KeyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Running:     lipgloss.NewStyle().Bold(true).Foreground(t.Running),
		Paused:      lipgloss.NewStyle().Bold(true).Foreground(t.Paused),
		Settled:     lipgloss.NewStyle().Bold(true).Foreground(t.Settled),
		Underdamped: lipgloss.NewStyle().Foreground(t.Underdamped),
		Critical:    lipgloss.NewStyle().Foreground(t.Critical),
		Overdamped:  lipgloss.NewStyle().Foreground(t.Overdamped),
	}
}

// Regime renders a damping regime in its color.
func (s Styles) Regime(r spring.Regime) string {
	switch r {
	case spring.Underdamped:
		return s.Underdamped.Render(r.String())
	case spring.CriticallyDamped:
		return s.Critical.Render(r.String())
	}
	return s.Overdamped.Render(r.String())
}

// Field renders one aligned "label value" line.
func (s Styles) Field(label string, value any) string {
	var v string
	switch x := value.(type) {
	case float64:
		v = fmt.Sprintf("%.4g", x)
	default:
		v = fmt.Sprint(x)
	}
	return s.Label.Render(label) + s.Value.Render(v)
}

// Separator is a muted rule width cells wide.
func (s Styles) Separator(width int) string {
	if width < 7 {
		return s.Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return s.Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}

// SparklineChart renders values as a one-line sparkline width cells wide.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := bounds(values)
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := max(len(values)/width, 1)

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return b.String()
}

// ProgressBar renders a filled bar for a fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := min(max(int(fraction*float64(width)), 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
