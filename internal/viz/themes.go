package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme colors the CLI and the live preview. Regime and status colors stay
// distinguishable from each other within a theme; Series and SeriesHex pair
// up entry by entry so terminal charts and SVG exports agree. Background
// fills SVG exports only.
type Theme struct {
	Name       string
	Title      lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color

	Running lipgloss.Color
	Paused  lipgloss.Color
	Settled lipgloss.Color

	Underdamped lipgloss.Color
	Critical    lipgloss.Color
	Overdamped  lipgloss.Color

	Series    []asciigraph.AnsiColor
	SeriesHex []lipgloss.Color
}

var (
	ThemeSpring = Theme{
		Name:        "spring",
		Title:       lipgloss.Color("#7ee0c3"),
		Text:        lipgloss.Color("#e8f1ee"),
		Muted:       lipgloss.Color("#5f7a72"),
		Background:  lipgloss.Color("#0e1614"),
		Running:     lipgloss.Color("#7ee0c3"),
		Paused:      lipgloss.Color("#f2c14e"),
		Settled:     lipgloss.Color("#9ab8ff"),
		Underdamped: lipgloss.Color("#f78154"),
		Critical:    lipgloss.Color("#7ee0c3"),
		Overdamped:  lipgloss.Color("#9ab8ff"),
		Series:      []asciigraph.AnsiColor{asciigraph.Teal, asciigraph.Orange, asciigraph.Gold, asciigraph.Blue},
		SeriesHex:   []lipgloss.Color{"#2bb39a", "#f78154", "#f2c14e", "#5c7cfa"},
	}

	ThemePaper = Theme{
		Name:        "paper",
		Title:       lipgloss.Color("#ffffff"),
		Text:        lipgloss.Color("#dddddd"),
		Muted:       lipgloss.Color("#808080"),
		Background:  lipgloss.Color("#fafafa"),
		Running:     lipgloss.Color("#ffffff"),
		Paused:      lipgloss.Color("#aaaaaa"),
		Settled:     lipgloss.Color("#cccccc"),
		Underdamped: lipgloss.Color("#ffffff"),
		Critical:    lipgloss.Color("#bbbbbb"),
		Overdamped:  lipgloss.Color("#888888"),
		Series:      []asciigraph.AnsiColor{asciigraph.White, asciigraph.Silver, asciigraph.Gray, asciigraph.Blue},
		SeriesHex:   []lipgloss.Color{"#222222", "#555555", "#888888", "#3a6ea5"},
	}

	ThemeTide = Theme{
		Name:        "tide",
		Title:       lipgloss.Color("#8ecae6"),
		Text:        lipgloss.Color("#e6f2fa"),
		Muted:       lipgloss.Color("#4f7a94"),
		Background:  lipgloss.Color("#06141f"),
		Running:     lipgloss.Color("#8ecae6"),
		Paused:      lipgloss.Color("#ffb703"),
		Settled:     lipgloss.Color("#90e0b0"),
		Underdamped: lipgloss.Color("#ffb703"),
		Critical:    lipgloss.Color("#90e0b0"),
		Overdamped:  lipgloss.Color("#219ebc"),
		Series:      []asciigraph.AnsiColor{asciigraph.Aqua, asciigraph.Gold, asciigraph.Teal, asciigraph.White},
		SeriesHex:   []lipgloss.Color{"#8ecae6", "#ffb703", "#219ebc", "#e6f2fa"},
	}

	ThemeEmber = Theme{
		Name:        "ember",
		Title:       lipgloss.Color("#ff8a5b"),
		Text:        lipgloss.Color("#fdeee6"),
		Muted:       lipgloss.Color("#8c6a5d"),
		Background:  lipgloss.Color("#1c100c"),
		Running:     lipgloss.Color("#ffd166"),
		Paused:      lipgloss.Color("#8c6a5d"),
		Settled:     lipgloss.Color("#ff8a5b"),
		Underdamped: lipgloss.Color("#ef476f"),
		Critical:    lipgloss.Color("#ffd166"),
		Overdamped:  lipgloss.Color("#ff8a5b"),
		Series:      []asciigraph.AnsiColor{asciigraph.Coral, asciigraph.Yellow, asciigraph.Pink, asciigraph.Orange},
		SeriesHex:   []lipgloss.Color{"#ff8a5b", "#ffd166", "#ef476f", "#f4a261"},
	}

	ThemePhosphor = Theme{
		Name:        "phosphor",
		Title:       lipgloss.Color("#66ff66"),
		Text:        lipgloss.Color("#33dd33"),
		Muted:       lipgloss.Color("#226622"),
		Background:  lipgloss.Color("#020a02"),
		Running:     lipgloss.Color("#66ff66"),
		Paused:      lipgloss.Color("#cccc33"),
		Settled:     lipgloss.Color("#aaffaa"),
		Underdamped: lipgloss.Color("#cccc33"),
		Critical:    lipgloss.Color("#66ff66"),
		Overdamped:  lipgloss.Color("#339933"),
		Series:      []asciigraph.AnsiColor{asciigraph.Lime, asciigraph.Green, asciigraph.Olive, asciigraph.Yellow},
		SeriesHex:   []lipgloss.Color{"#66ff66", "#33aa33", "#999933", "#cccc33"},
	}

	// DefaultTheme is used when no theme is named.
	DefaultTheme = ThemeSpring

	Themes = []Theme{
		ThemeSpring,
		ThemePaper,
		ThemeTide,
		ThemeEmber,
		ThemePhosphor,
	}
)

// GetTheme returns a theme by name, falling back to DefaultTheme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return DefaultTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Next returns the theme after t in Themes, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// SeriesColor returns the hex color for series i.
func (t Theme) SeriesColor(i int) string {
	if len(t.SeriesHex) == 0 {
		return string(t.Text)
	}
	return string(t.SeriesHex[i%len(t.SeriesHex)])
}
