package viz

import (
	"fmt"
	"strings"
)

// SVG draws each series as a polyline over frame index, with an optional
// dashed target line, in the theme's colors.
func SVG(series [][]float64, width, height int, target *float64, theme Theme) string {
	n := 0
	var all []float64
	for _, s := range series {
		n = max(n, len(s))
		all = append(all, s...)
	}
	if n < 2 || width <= 0 || height <= 0 {
		return ""
	}
	if target != nil {
		all = append(all, *target)
	}
	lo, hi := bounds(all)
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	lo, hi = lo-pad, hi+pad

	x := func(i int) float64 { return float64(i) / float64(n-1) * float64(width) }
	y := func(v float64) float64 { return float64(height) - (v-lo)/(hi-lo)*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, theme.Background)

	if target != nil {
		ty := y(*target)
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="4 4"/>
`, ty, width, ty, theme.Muted)
	}

	for si, s := range series {
		if len(s) == 0 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, theme.SeriesColor(si))
		for i, v := range s {
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x(i), y(v))
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x(i), y(v))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
